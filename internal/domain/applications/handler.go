package applications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Wizard de 4 pasos
	r.Post("/pets/{petID}/applications/wizard", startWizardHandler(svc))
	r.Get("/applications/wizard/{wizardID}", getWizardHandler(svc))
	r.Post("/applications/wizard/{wizardID}/advance", advanceWizardHandler(svc))
	r.Post("/applications/wizard/{wizardID}/retreat", retreatWizardHandler(svc))
	r.Delete("/applications/wizard/{wizardID}", discardWizardHandler(svc))

	// Envío en un solo request (clientes que validan los pasos localmente)
	r.Post("/pets/{petID}/applications", submitApplicationHandler(svc))

	// Dashboard del usuario
	r.Get("/me/applications", listMyApplicationsHandler(svc))
	r.Get("/me/applications/stream", streamHandler(svc))
	r.Get("/me/applications/{applicationID}", getMyApplicationHandler(svc))

	// Panel admin
	r.Get("/admin/applications", listAllApplicationsHandler(svc))
	r.Patch("/admin/applications/{applicationID}", reviewApplicationHandler(svc))
	r.Delete("/admin/applications/{applicationID}", deleteApplicationHandler(svc))
}

type wizardResponse struct {
	ID            string `json:"id"`
	PetID         string `json:"petId"`
	Step          Step   `json:"step"`
	StepNumber    int    `json:"stepNumber"`
	Section       string `json:"section,omitempty"`
	Draft         Draft  `json:"draft"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type advanceResponse struct {
	Step          Step   `json:"step"`
	StepNumber    int    `json:"stepNumber"`
	Section       string `json:"section,omitempty"`
	Submitted     bool   `json:"submitted"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type submitRequest struct {
	PersonalInfo Section `json:"personalInfo"`
	HomeInfo     Section `json:"homeInfo"`
	Experience   Section `json:"experience"`
	References   Section `json:"references"`
	Status       Status  `json:"status"`
}

type reviewRequest struct {
	Status Status `json:"status"`
}

type petSummaryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	ImageURL string `json:"imageUrl"`
}

type applicantResponse struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type applicationResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	PetID        string              `json:"petId"`
	Status       Status              `json:"status"`
	PersonalInfo Section             `json:"personalInfo"`
	HomeInfo     Section             `json:"homeInfo"`
	Experience   Section             `json:"experience"`
	References   Section             `json:"references"`
	Pet          *petSummaryResponse `json:"pet,omitempty"`
	Applicant    *applicantResponse  `json:"applicant,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Step   Step              `json:"step"`
	Fields map[string]string `json:"fields"`
}

// startWizardHandler godoc
// @Summary Abrir el wizard de solicitud de adopción
// @Tags applications
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 201 {object} wizardResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/applications/wizard [post]
func startWizardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wz, err := svc.StartWizard(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toWizardResponse(wz.View()))
	}
}

func getWizardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wz, err := svc.Wizard(middleware.Session(r.Context()), chi.URLParam(r, "wizardID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWizardResponse(wz.View()))
	}
}

// advanceWizardHandler godoc
// @Summary Validar el paso actual y avanzar (en el paso 4 envía la solicitud)
// @Tags applications
// @Accept json
// @Produce json
// @Param wizardID path string true "ID del wizard"
// @Success 200 {object} advanceResponse
// @Success 201 {object} advanceResponse
// @Failure 404 {string} string "wizard not found (also after a successful submit)"
// @Failure 409 {string} string "busy"
// @Failure 413 {string} string "request body too large"
// @Failure 422 {object} validationResponse
// @Router /applications/wizard/{wizardID}/advance [post]
func advanceWizardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data Section
		if !decodeJSON(w, r, &data) {
			return
		}

		res, err := svc.AdvanceWizard(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "wizardID"), data)
		if err != nil {
			writeError(w, err)
			return
		}

		status := http.StatusOK
		if res.Submitted() {
			status = http.StatusCreated
		}
		writeJSON(w, status, advanceResponse{
			Step:          res.Step,
			StepNumber:    res.Step.Number(),
			Section:       res.Step.SectionKey(),
			Submitted:     res.Submitted(),
			ApplicationID: res.ApplicationID,
		})
	}
}

func retreatWizardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wz, err := svc.Wizard(middleware.Session(r.Context()), chi.URLParam(r, "wizardID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := wz.Retreat(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWizardResponse(wz.View()))
	}
}

func discardWizardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DiscardWizard(middleware.Session(r.Context()), chi.URLParam(r, "wizardID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// submitApplicationHandler godoc
// @Summary Enviar una solicitud completa en un solo request
// @Tags applications
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param Idempotency-Key header string false "Clave del intento de envío"
// @Success 201 {object} applicationResponse
// @Failure 422 {object} validationResponse
// @Router /pets/{petID}/applications [post]
func submitApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.Session(r.Context())
		if err := sess.Require(); err != nil {
			writeError(w, err)
			return
		}

		var req submitRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		draft, err := ValidateDraft(map[string]Section{
			SectionPersonal:   req.PersonalInfo,
			SectionHome:       req.HomeInfo,
			SectionExperience: req.Experience,
			SectionReferences: req.References,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		app, err := svc.Submit(r.Context(), sess, SubmitInput{
			PetID:  chi.URLParam(r, "petID"),
			Key:    r.Header.Get("Idempotency-Key"),
			Draft:  draft,
			Status: req.Status,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toApplicationResponse(ApplicationWithPet{Application: app}))
	}
}

// listMyApplicationsHandler godoc
// @Summary Mis solicitudes, más nuevas primero
// @Tags applications
// @Produce json
// @Success 200 {array} applicationResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/applications [get]
func listMyApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMine(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponses(items))
	}
}

func getMyApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetMine(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "applicationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// listAllApplicationsHandler godoc
// @Summary Todas las solicitudes, con mascota y perfil del solicitante (admin)
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved, rejected"
// @Success 200 {array} applicationResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Router /admin/applications [get]
func listAllApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context(), middleware.Session(r.Context()), Status(r.URL.Query().Get("status")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponses(items))
	}
}

// reviewApplicationHandler godoc
// @Summary Aprobar o rechazar una solicitud (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param applicationID path string true "ID de la solicitud"
// @Success 200 {object} applicationResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid status transition"
// @Router /admin/applications/{applicationID} [patch]
func reviewApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.Review(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "applicationID"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponse(ApplicationWithPet{Application: a}))
	}
}

func deleteApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "applicationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:  "validation failed",
			Step:   vErr.Step,
			Fields: vErr.Fields,
		})
		return
	}

	var pErr *recordstore.PersistenceError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrPetNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrWizardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBusy), errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIncompleteDraft):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &pErr):
		http.Error(w, "could not save application, please try again", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toWizardResponse(v View) wizardResponse {
	return wizardResponse{
		ID:            v.ID,
		PetID:         v.PetID,
		Step:          v.Step,
		StepNumber:    v.Step.Number(),
		Section:       v.Step.SectionKey(),
		Draft:         v.Draft,
		ApplicationID: v.ApplicationID,
	}
}

func toApplicationResponses(items []ApplicationWithPet) []applicationResponse {
	out := make([]applicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toApplicationResponse(a))
	}
	return out
}

func toApplicationResponse(a ApplicationWithPet) applicationResponse {
	resp := applicationResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		PetID:        a.PetID,
		Status:       a.Status,
		PersonalInfo: a.PersonalInfo,
		HomeInfo:     a.HomeInfo,
		Experience:   a.Experience,
		References:   a.References,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.Pet != nil {
		resp.Pet = &petSummaryResponse{
			ID:       a.Pet.ID,
			Name:     a.Pet.Name,
			Species:  a.Pet.Species,
			Breed:    a.Pet.Breed,
			ImageURL: a.Pet.ImageURL,
		}
	}
	if a.Applicant != nil {
		resp.Applicant = &applicantResponse{FullName: a.Applicant.FullName, Phone: a.Applicant.Phone}
	}
	return resp
}

// Un formulario completo ocupa unos pocos KB.
const maxRequestBody = 64 << 10

// decodeJSON responde 400/413 y devuelve false si el body no sirve.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
