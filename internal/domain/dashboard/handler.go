package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/admin/stats", statsHandler(svc))
}

type applicationStatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[applications.Status]int `json:"byStatus"`
	Recent   []recentApplicationResponse `json:"recent"`
}

type recentApplicationResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	PetID       string              `json:"petId"`
	PetName     string              `json:"petName,omitempty"`
	PetImageURL string              `json:"petImageUrl,omitempty"`
	Status      applications.Status `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type statsResponse struct {
	Applications applicationStatsResponse `json:"applications"`
	Pets         int                      `json:"pets"`
	Shelters     int                      `json:"shelters"`
	Products     int                      `json:"products"`
}

// statsHandler godoc
// @Summary Totales del panel admin
// @Description Solicitudes por estado y las más nuevas, más los totales de mascotas, refugios y productos.
// @Tags admin
// @Produce json
// @Success 200 {object} statsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /admin/stats [get]
func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			case errors.Is(err, applications.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toStatsResponse(st))
	}
}

func toStatsResponse(st Stats) statsResponse {
	recent := make([]recentApplicationResponse, 0, len(st.Applications.Recent))
	for _, a := range st.Applications.Recent {
		item := recentApplicationResponse{
			ID:        a.ID,
			UserID:    a.UserID,
			PetID:     a.PetID,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
		}
		if a.Pet != nil {
			item.PetName = a.Pet.Name
			item.PetImageURL = a.Pet.ImageURL
		}
		recent = append(recent, item)
	}
	return statsResponse{
		Applications: applicationStatsResponse{
			Total:    st.Applications.Total,
			ByStatus: st.Applications.ByStatus,
			Recent:   recent,
		},
		Pets:     st.Pets,
		Shelters: st.Shelters,
		Products: st.Products,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
