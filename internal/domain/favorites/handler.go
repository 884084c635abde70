package favorites

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
	r.Post("/pets/{petID}/favorite/toggle", toggleFavoriteHandler(svc))
	r.Get("/pets/{petID}/favorite", getFavoriteHandler(svc))
	r.Put("/pets/{petID}/favorite", setFavoriteHandler(svc, true))
	r.Delete("/pets/{petID}/favorite", setFavoriteHandler(svc, false))

	r.Get("/me/favorites", listFavoritesHandler(svc))
}

type favoriteStateResponse struct {
	PetID    string `json:"petId"`
	Favorite bool   `json:"favorite"`
}

type favoritePetResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	Age      int    `json:"age"`
	ImageURL string `json:"imageUrl"`
}

type favoriteResponse struct {
	PetID     string               `json:"petId"`
	CreatedAt time.Time            `json:"createdAt"`
	Pet       *favoritePetResponse `json:"pet,omitempty"`
}

// toggleFavoriteHandler godoc
// @Summary Agregar o quitar una mascota de favoritos
// @Tags favorites
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} favoriteStateResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/favorite/toggle [post]
func toggleFavoriteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		fav, err := svc.Toggle(r.Context(), middleware.Session(r.Context()), petID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, favoriteStateResponse{PetID: petID, Favorite: fav})
	}
}

func getFavoriteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		fav, err := svc.IsFavorite(r.Context(), middleware.Session(r.Context()), petID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, favoriteStateResponse{PetID: petID, Favorite: fav})
	}
}

func setFavoriteHandler(svc *Service, favorite bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		fav, err := svc.Set(r.Context(), middleware.Session(r.Context()), petID, favorite)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, favoriteStateResponse{PetID: petID, Favorite: fav})
	}
}

// listFavoritesHandler godoc
// @Summary Mis favoritos
// @Tags favorites
// @Produce json
// @Success 200 {array} favoriteResponse
// @Router /me/favorites [get]
func listFavoritesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]favoriteResponse, 0, len(items))
		for _, it := range items {
			resp := favoriteResponse{PetID: it.PetID, CreatedAt: it.CreatedAt}
			if it.Pet != nil {
				resp.Pet = &favoritePetResponse{
					ID:       it.Pet.ID,
					Name:     it.Pet.Name,
					Species:  string(it.Pet.Species),
					Breed:    it.Pet.Breed,
					Age:      it.Pet.Age,
					ImageURL: it.Pet.ImageURL,
				}
			}
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid pet id", http.StatusBadRequest)
	case errors.Is(err, ErrPetNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	default:
		http.Error(w, "could not update favorites, please try again", http.StatusServiceUnavailable)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
