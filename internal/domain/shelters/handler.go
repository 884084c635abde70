package shelters

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/shelters", listSheltersHandler(svc))
	r.Get("/shelters/{shelterID}", getShelterHandler(svc))

	// Panel admin
	r.Post("/admin/shelters", createShelterHandler(svc))
	r.Patch("/admin/shelters/{shelterID}", updateShelterHandler(svc))
	r.Delete("/admin/shelters/{shelterID}", deleteShelterHandler(svc))
}

type createShelterRequest struct {
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	ZipCode     string            `json:"zipCode"`
	PhoneNumber string            `json:"phoneNumber"`
	Email       string            `json:"email"`
	WebsiteURL  string            `json:"websiteUrl"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Location    locationDTO       `json:"location"`
	Hours       map[string]string `json:"hours"`
}

type updateShelterRequest struct {
	Name        *string           `json:"name"`
	Address     *string           `json:"address"`
	City        *string           `json:"city"`
	State       *string           `json:"state"`
	ZipCode     *string           `json:"zipCode"`
	PhoneNumber *string           `json:"phoneNumber"`
	Email       *string           `json:"email"`
	WebsiteURL  *string           `json:"websiteUrl"`
	Description *string           `json:"description"`
	ImageURL    *string           `json:"imageUrl"`
	Location    *locationDTO      `json:"location"`
	Hours       map[string]string `json:"hours"`
}

type locationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ShelterResponse es la vista pública de un refugio. Exportado porque pets lo embebe.
type ShelterResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	ZipCode     string            `json:"zipCode"`
	PhoneNumber string            `json:"phoneNumber"`
	Email       string            `json:"email"`
	WebsiteURL  string            `json:"websiteUrl,omitempty"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Location    locationDTO       `json:"location"`
	Hours       map[string]string `json:"hours"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// listSheltersHandler godoc
// @Summary Listar refugios
// @Tags shelters
// @Produce json
// @Success 200 {array} ShelterResponse
// @Router /shelters [get]
func listSheltersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]ShelterResponse, 0, len(items))
		for _, s := range items {
			out = append(out, ToResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getShelterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetByID(r.Context(), chi.URLParam(r, "shelterID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "shelter not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(s))
	}
}

func createShelterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createShelterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		s, err := svc.Create(r.Context(), middleware.Session(r.Context()), CreateInput{
			Name:        req.Name,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			ZipCode:     req.ZipCode,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			WebsiteURL:  req.WebsiteURL,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Location:    Location{Lat: req.Location.Lat, Lng: req.Location.Lng},
			Hours:       req.Hours,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(s))
	}
}

// updateShelterHandler godoc
// @Summary Editar un refugio (admin)
// @Description Sólo se cambian los campos presentes; hours reemplaza la semana entera.
// @Tags admin
// @Accept json
// @Produce json
// @Param shelterID path string true "ID del refugio"
// @Success 200 {object} ShelterResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "shelter not found"
// @Router /admin/shelters/{shelterID} [patch]
func updateShelterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateShelterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:        req.Name,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			ZipCode:     req.ZipCode,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			WebsiteURL:  req.WebsiteURL,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Hours:       req.Hours,
		}
		if req.Location != nil {
			in.Location = &Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
		}

		s, err := svc.Update(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "shelterID"), in)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(s))
	}
}

// deleteShelterHandler godoc
// @Summary Borrar un refugio sin mascotas (admin)
// @Tags admin
// @Param shelterID path string true "ID del refugio"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "shelter not found"
// @Failure 409 {string} string "shelter still has pets"
// @Router /admin/shelters/{shelterID} [delete]
func deleteShelterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "shelterID")); err != nil {
			writeAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "shelter not found", http.StatusNotFound)
	case errors.Is(err, ErrHasPets):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func ToResponse(s Shelter) ShelterResponse {
	hours := s.Hours
	if hours == nil {
		hours = map[string]string{}
	}
	return ShelterResponse{
		ID:          s.ID,
		Name:        s.Name,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		ZipCode:     s.ZipCode,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		WebsiteURL:  s.WebsiteURL,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		Location:    locationDTO{Lat: s.Location.Lat, Lng: s.Location.Lng},
		Hours:       hours,
		CreatedAt:   s.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
