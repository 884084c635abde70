package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /auth/*. limit se aplica a los endpoints que reciben
// credenciales (puede ser nil).
func RegisterRoutes(r chi.Router, svc *Service, limit func(http.Handler) http.Handler) {
	lr := r
	if limit != nil {
		lr = r.With(limit)
	}

	lr.Post("/auth/signup", signUpHandler(svc))
	lr.Post("/auth/signin", signInHandler(svc))
	lr.Post("/auth/password/reset", requestResetHandler(svc))
	lr.Post("/auth/password/reset/confirm", confirmResetHandler(svc))

	r.Post("/auth/signout", signOutHandler(svc))
	r.Get("/auth/me", meHandler(svc))

	r.Get("/me/profile", getProfileHandler(svc))
	r.Patch("/me/profile", updateProfileHandler(svc))
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type confirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

type profileResponse struct {
	UserID    string     `json:"userId"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        userResponse `json:"user"`
}

type resetResponse struct {
	Message string `json:"message"`
	// ResetToken sólo aparece en modo dev (sin mailer).
	ResetToken string `json:"resetToken,omitempty"`
}

// signUpHandler godoc
// @Summary Crear cuenta
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} authResponse
// @Failure 400 {string} string "invalid input"
// @Failure 409 {string} string "email already registered"
// @Failure 429 {string} string "rate limited"
// @Router /auth/signup [post]
func signUpHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		res, err := svc.SignUp(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAuthResponse(res))
	}
}

// signInHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} authResponse
// @Failure 401 {string} string "invalid email or password"
// @Router /auth/signin [post]
func signInHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		res, err := svc.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAuthResponse(res))
	}
}

func signOutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeError(w, auth.ErrUnauthenticated)
			return
		}
		if err := svc.SignOut(r.Context(), claims); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.Session(r.Context())
		u, err := svc.Me(r.Context(), sess)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u, sess.Admin))
	}
}

// getProfileHandler godoc
// @Summary Mi perfil de contacto
// @Tags auth
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/profile [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Profile(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// updateProfileHandler godoc
// @Summary Editar mi nombre y teléfono
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /me/profile [patch]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := svc.UpdateProfile(r.Context(), middleware.Session(r.Context()), ProfileInput{
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// requestResetHandler godoc
// @Summary Pedir un reseteo de contraseña
// @Tags auth
// @Accept json
// @Produce json
// @Success 202 {object} resetResponse
// @Router /auth/password/reset [post]
func requestResetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		token, err := svc.RequestPasswordReset(r.Context(), req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, resetResponse{
			Message:    "if the email is registered, a reset link is on its way",
			ResetToken: token,
		})
	}
}

func confirmResetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := svc.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidResetToken):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAuthResponse(res AuthResult) authResponse {
	return authResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresAt:   res.Claims.ExpiresAt,
		User:        toUserResponse(res.User, res.Claims.Role == auth.RoleAdmin),
	}
}

func toUserResponse(u User, admin bool) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Admin:     admin,
		CreatedAt: u.CreatedAt,
	}
}

func toProfileResponse(p Profile) profileResponse {
	resp := profileResponse{UserID: p.UserID, FullName: p.FullName, Phone: p.Phone}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = &p.UpdatedAt
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
