package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Catálogo público
	r.Get("/pets", listPetsHandler(svc))
	r.Get("/pets/{petID}", getPetHandler(svc))

	// Panel admin
	r.Post("/admin/pets", createPetHandler(svc))
	r.Patch("/admin/pets/{petID}", updatePetHandler(svc))
	r.Delete("/admin/pets/{petID}", deletePetHandler(svc))
}

type goodWithDTO struct {
	Kids bool `json:"kids"`
	Dogs bool `json:"dogs"`
	Cats bool `json:"cats"`
}

type createPetRequest struct {
	ShelterID     string      `json:"shelterId"`
	Name          string      `json:"name"`
	Species       string      `json:"species"`
	Breed         string      `json:"breed"`
	Age           int         `json:"age"`
	Size          string      `json:"size"`
	Gender        string      `json:"gender"`
	Description   string      `json:"description"`
	ImageURL      string      `json:"imageUrl"`
	HealthStatus  string      `json:"healthStatus"`
	Vaccinated    bool        `json:"vaccinated"`
	Neutered      bool        `json:"neutered"`
	Microchipped  bool        `json:"microchipped"`
	HouseTrained  bool        `json:"houseTrained"`
	GoodWith      goodWithDTO `json:"goodWith"`
	ActivityLevel string      `json:"activityLevel"`
}

type updatePetRequest struct {
	ShelterID     *string      `json:"shelterId"`
	Name          *string      `json:"name"`
	Species       *string      `json:"species"`
	Breed         *string      `json:"breed"`
	Age           *int         `json:"age"`
	Size          *string      `json:"size"`
	Gender        *string      `json:"gender"`
	Description   *string      `json:"description"`
	ImageURL      *string      `json:"imageUrl"`
	HealthStatus  *string      `json:"healthStatus"`
	Vaccinated    *bool        `json:"vaccinated"`
	Neutered      *bool        `json:"neutered"`
	Microchipped  *bool        `json:"microchipped"`
	HouseTrained  *bool        `json:"houseTrained"`
	GoodWith      *goodWithDTO `json:"goodWith"`
	ActivityLevel *string      `json:"activityLevel"`
}

type petResponse struct {
	ID            string        `json:"id"`
	ShelterID     string        `json:"shelterId"`
	Name          string        `json:"name"`
	Species       Species       `json:"species"`
	Breed         string        `json:"breed"`
	Age           int           `json:"age"`
	Size          Size          `json:"size"`
	Gender        Gender        `json:"gender"`
	Description   string        `json:"description"`
	ImageURL      string        `json:"imageUrl"`
	HealthStatus  string        `json:"healthStatus"`
	Vaccinated    bool          `json:"vaccinated"`
	Neutered      bool          `json:"neutered"`
	Microchipped  bool          `json:"microchipped"`
	HouseTrained  bool          `json:"houseTrained"`
	GoodWith      goodWithDTO   `json:"goodWith"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type petDetailResponse struct {
	petResponse
	Shelter *shelters.ShelterResponse `json:"shelter,omitempty"`
}

// listPetsHandler godoc
// @Summary Listar mascotas en adopción
// @Tags pets
// @Produce json
// @Param species query string false "dog, cat, bird, small-animal, other"
// @Param size query string false "small, medium, large"
// @Param gender query string false "male, female"
// @Param shelterId query string false "ID de refugio"
// @Param q query string false "Busca en nombre y raza"
// @Param limit query int false "Máximo 100"
// @Success 200 {array} petResponse
// @Failure 400 {string} string "filtro inválido"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.List(r.Context(), ListFilter{
			Species:   Species(q.Get("species")),
			Size:      Size(q.Get("size")),
			Gender:    Gender(q.Get("gender")),
			ShelterID: q.Get("shelterId"),
			Query:     q.Get("q"),
			Limit:     limit,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Detalle de mascota con su refugio
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petDetailResponse
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, sh, err := svc.GetWithShelter(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := petDetailResponse{petResponse: toPetResponse(p)}
		if sh != nil {
			resp := shelters.ToResponse(*sh)
			out.Shelter = &resp
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), middleware.Session(r.Context()), CreateInput{
			ShelterID:     req.ShelterID,
			Name:          req.Name,
			Species:       req.Species,
			Breed:         req.Breed,
			Age:           req.Age,
			Size:          req.Size,
			Gender:        req.Gender,
			Description:   req.Description,
			ImageURL:      req.ImageURL,
			HealthStatus:  req.HealthStatus,
			Vaccinated:    req.Vaccinated,
			Neutered:      req.Neutered,
			Microchipped:  req.Microchipped,
			HouseTrained:  req.HouseTrained,
			GoodWith:      GoodWith{Kids: req.GoodWith.Kids, Dogs: req.GoodWith.Dogs, Cats: req.GoodWith.Cats},
			ActivityLevel: req.ActivityLevel,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Editar una mascota (admin)
// @Description Sólo se cambian los campos presentes en el body.
// @Tags admin
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /admin/pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			ShelterID:     req.ShelterID,
			Name:          req.Name,
			Species:       req.Species,
			Breed:         req.Breed,
			Age:           req.Age,
			Size:          req.Size,
			Gender:        req.Gender,
			Description:   req.Description,
			ImageURL:      req.ImageURL,
			HealthStatus:  req.HealthStatus,
			Vaccinated:    req.Vaccinated,
			Neutered:      req.Neutered,
			Microchipped:  req.Microchipped,
			HouseTrained:  req.HouseTrained,
			ActivityLevel: req.ActivityLevel,
		}
		if req.GoodWith != nil {
			in.GoodWith = &GoodWith{Kids: req.GoodWith.Kids, Dogs: req.GoodWith.Dogs, Cats: req.GoodWith.Cats}
		}

		p, err := svc.Update(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "petID"), in)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Quitar una mascota del catálogo (admin)
// @Tags admin
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /admin/pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "petID")); err != nil {
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
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:            p.ID,
		ShelterID:     p.ShelterID,
		Name:          p.Name,
		Species:       p.Species,
		Breed:         p.Breed,
		Age:           p.Age,
		Size:          p.Size,
		Gender:        p.Gender,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		HealthStatus:  p.HealthStatus,
		Vaccinated:    p.Vaccinated,
		Neutered:      p.Neutered,
		Microchipped:  p.Microchipped,
		HouseTrained:  p.HouseTrained,
		GoodWith:      goodWithDTO{Kids: p.GoodWith.Kids, Dogs: p.GoodWith.Dogs, Cats: p.GoodWith.Cats},
		ActivityLevel: p.ActivityLevel,
		CreatedAt:     p.CreatedAt,
	}
}

// writeJSON está duplicado en handlers de distintos módulos a propósito;
// todavía no justifica un paquete compartido.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
