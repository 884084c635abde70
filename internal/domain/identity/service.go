package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/notify"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const (
	minPasswordLen = 6
	resetTokenTTL  = time.Hour
	maxFullNameLen = 100
)

// Dígitos con +, espacios, guiones, puntos o paréntesis.
var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ().-]{4,30}$`)

// AdminPolicy decide si un email tiene rol admin (ADMIN_EMAILS).
type AdminPolicy func(email string) bool

type Deps struct {
	Repo   Repository
	Tokens *Tokens
	Admins AdminPolicy
	// Resets es opcional; sin dispatcher el token se devuelve al caller (modo dev).
	Resets notify.PasswordResetDispatcher
	Log    logger.Logger
}

type Service struct {
	repo   Repository
	tokens *Tokens
	admins AdminPolicy
	resets notify.PasswordResetDispatcher
	log    logger.Logger
	now    func() time.Time
	cost   int
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:   d.Repo,
		tokens: d.Tokens,
		admins: d.Admins,
		resets: d.Resets,
		log:    d.Log,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	if s.admins == nil {
		s.admins = func(string) bool { return false }
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// AuthResult es lo que recibe el cliente después de sign-up / sign-in.
type AuthResult struct {
	User   User
	Token  string
	Claims auth.Claims
}

func (s *Service) SignUp(ctx context.Context, name, email, password string) (AuthResult, error) {
	name = strings.TrimSpace(name)
	email, err := normalizeEmail(email)
	if err != nil || name == "" || len(password) < minPasswordLen {
		return AuthResult{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, recordstore.ErrDuplicate) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, recordstore.Wrap("insert user", err)
	}

	s.log.Info("user signed up", map[string]any{"user_id": u.ID})
	return s.issue(u)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, recordstore.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, recordstore.Wrap("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// SignOut revoca el token de la sesión hasta que venza.
func (s *Service) SignOut(ctx context.Context, claims auth.Claims) error {
	if strings.TrimSpace(claims.UserID) == "" {
		return auth.ErrUnauthenticated
	}
	if claims.TokenID == "" {
		// tokens de dev o de un IdP externo: no hay nada que revocar acá
		return nil
	}
	exp := claims.ExpiresAt
	if exp.IsZero() {
		exp = s.now().Add(DefaultTokenTTL)
	}
	if err := s.repo.RevokeToken(ctx, claims.TokenID, exp); err != nil {
		return recordstore.Wrap("revoke token", err)
	}
	return nil
}

// Me devuelve el usuario de la sesión.
func (s *Service) Me(ctx context.Context, sess *auth.Session) (User, error) {
	if err := sess.Require(); err != nil {
		return User{}, err
	}
	u, err := s.repo.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, recordstore.ErrNotFound) {
		// usuario de un IdP externo: sólo conocemos lo que trae el token
		return User{ID: sess.UserID, Email: sess.Email}, nil
	}
	if err != nil {
		return User{}, recordstore.Wrap("get user", err)
	}
	return u, nil
}

// Profile devuelve el perfil del usuario de la sesión.
func (s *Service) Profile(ctx context.Context, sess *auth.Session) (Profile, error) {
	if err := sess.Require(); err != nil {
		return Profile{}, err
	}
	return s.ProfileOf(ctx, sess.UserID)
}

// ProfileOf no exige sesión; lo usa el panel admin para mostrar al solicitante.
// Un usuario que nunca guardó su perfil recibe el nombre de su cuenta (si la tiene).
func (s *Service) ProfileOf(ctx context.Context, userID string) (Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, recordstore.ErrNotFound) {
		return Profile{}, recordstore.Wrap("get profile", err)
	}

	p = Profile{UserID: userID}
	u, err := s.repo.GetUserByID(ctx, userID)
	switch {
	case err == nil:
		p.FullName = u.Name
	case !errors.Is(err, recordstore.ErrNotFound):
		return Profile{}, recordstore.Wrap("get user", err)
	}
	return p, nil
}

// ProfileInput: nil = no tocar el campo. Un teléfono vacío lo borra.
type ProfileInput struct {
	FullName *string
	Phone    *string
}

func (s *Service) UpdateProfile(ctx context.Context, sess *auth.Session, in ProfileInput) (Profile, error) {
	if err := sess.Require(); err != nil {
		return Profile{}, err
	}
	p, err := s.ProfileOf(ctx, sess.UserID)
	if err != nil {
		return Profile{}, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" || utf8.RuneCountInString(name) > maxFullNameLen {
			return Profile{}, ErrInvalidInput
		}
		p.FullName = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			return Profile{}, ErrInvalidInput
		}
		p.Phone = phone
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return Profile{}, recordstore.Wrap("save profile", err)
	}
	return p, nil
}

// RequestPasswordReset genera un token de un solo uso. Si el email no existe
// responde igual (no se revela qué emails están registrados). El token sólo
// se devuelve cuando no hay dispatcher configurado.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", ErrInvalidInput
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, recordstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", recordstore.Wrap("get user", err)
	}

	token, err := randomToken()
	if err != nil {
		return "", err
	}
	rt := ResetToken{
		TokenHash: hashToken(token),
		UserID:    u.ID,
		ExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}
	if err := s.repo.SaveResetToken(ctx, rt); err != nil {
		return "", recordstore.Wrap("save reset token", err)
	}

	if s.resets == nil {
		return token, nil
	}
	if err := s.resets.SendPasswordReset(ctx, u.Email, token); err != nil {
		s.log.Error("password reset dispatch failed", map[string]any{"user_id": u.ID, "err": err})
		return "", fmt.Errorf("dispatch password reset: %w", err)
	}
	return "", nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < minPasswordLen {
		return ErrInvalidInput
	}

	userID, err := s.repo.ConsumeResetToken(ctx, hashToken(token), s.now().UTC())
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return recordstore.Wrap("consume reset token", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash), s.now().UTC()); err != nil {
		return recordstore.Wrap("update password", err)
	}
	return nil
}

func (s *Service) issue(u User) (AuthResult, error) {
	role := ""
	if s.admins(u.Email) {
		role = auth.RoleAdmin
	}
	token, claims, err := s.tokens.Issue(u, role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token, Claims: claims}, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
