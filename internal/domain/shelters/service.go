package shelters

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("shelter not found")
	ErrForbidden    = errors.New("forbidden")
	ErrHasPets      = errors.New("shelter still has pets")
)

// PetCountFunc cuenta las mascotas publicadas de un refugio.
type PetCountFunc func(ctx context.Context, shelterID string) (int, error)

type Option func(*Service)

// WithPetCount habilita el chequeo previo a Delete. Sin él, el borrado de un
// refugio con mascotas depende de lo que haga el store.
func WithPetCount(fn PetCountFunc) Option {
	return func(s *Service) { s.petCount = fn }
}

type Service struct {
	repo     Repository
	petCount PetCountFunc
	now      func() time.Time
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Name        string
	Address     string
	City        string
	State       string
	ZipCode     string
	PhoneNumber string
	Email       string
	WebsiteURL  string
	Description string
	ImageURL    string
	Location    Location
	Hours       map[string]string
}

// Create es solo para admins (panel de refugios).
func (s *Service) Create(ctx context.Context, sess *auth.Session, in CreateInput) (Shelter, error) {
	if err := requireAdmin(sess); err != nil {
		return Shelter{}, err
	}

	now := s.now()
	sh := Shelter{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		ZipCode:     strings.TrimSpace(in.ZipCode),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Email:       strings.TrimSpace(in.Email),
		WebsiteURL:  strings.TrimSpace(in.WebsiteURL),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Location:    in.Location,
		Hours:       normalizeHours(in.Hours),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validate(sh); err != nil {
		return Shelter{}, err
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		return Shelter{}, recordstore.Wrap("insert shelter", err)
	}
	return sh, nil
}

// UpdateInput: nil = no tocar el campo. Hours, si viene, reemplaza la semana entera.
type UpdateInput struct {
	Name        *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	PhoneNumber *string
	Email       *string
	WebsiteURL  *string
	Description *string
	ImageURL    *string
	Location    *Location
	Hours       map[string]string
}

func (s *Service) Update(ctx context.Context, sess *auth.Session, id string, in UpdateInput) (Shelter, error) {
	if err := requireAdmin(sess); err != nil {
		return Shelter{}, err
	}
	sh, err := s.GetByID(ctx, id)
	if err != nil {
		return Shelter{}, err
	}

	for _, f := range []struct {
		dst *string
		v   *string
	}{
		{&sh.Name, in.Name},
		{&sh.Address, in.Address},
		{&sh.City, in.City},
		{&sh.State, in.State},
		{&sh.ZipCode, in.ZipCode},
		{&sh.PhoneNumber, in.PhoneNumber},
		{&sh.Email, in.Email},
		{&sh.WebsiteURL, in.WebsiteURL},
		{&sh.Description, in.Description},
		{&sh.ImageURL, in.ImageURL},
	} {
		if f.v != nil {
			*f.dst = strings.TrimSpace(*f.v)
		}
	}
	if in.Location != nil {
		sh.Location = *in.Location
	}
	if in.Hours != nil {
		sh.Hours = normalizeHours(in.Hours)
	}
	if err := validate(sh); err != nil {
		return Shelter{}, err
	}
	sh.UpdatedAt = s.now()

	err = s.repo.Update(ctx, sh)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Shelter{}, ErrNotFound
	}
	if err != nil {
		return Shelter{}, recordstore.Wrap("update shelter", err)
	}
	return sh, nil
}

// Delete no borra refugios con mascotas publicadas (ErrHasPets).
func (s *Service) Delete(ctx context.Context, sess *auth.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if s.petCount != nil {
		n, err := s.petCount(ctx, id)
		if err != nil {
			return recordstore.Wrap("count shelter pets", err)
		}
		if n > 0 {
			return ErrHasPets
		}
	}

	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recordstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, recordstore.ErrConflict):
		return ErrHasPets
	default:
		return recordstore.Wrap("delete shelter", err)
	}
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, recordstore.Wrap("count shelters", err)
	}
	return n, nil
}

func validate(sh Shelter) error {
	if sh.Name == "" || sh.City == "" {
		return ErrInvalidInput
	}
	if sh.Email != "" {
		if _, err := mail.ParseAddress(sh.Email); err != nil {
			return ErrInvalidInput
		}
	}
	if sh.Location.Lat < -90 || sh.Location.Lat > 90 || sh.Location.Lng < -180 || sh.Location.Lng > 180 {
		return ErrInvalidInput
	}
	return nil
}

// normalizeHours descarta días desconocidos y horarios vacíos.
func normalizeHours(in map[string]string) map[string]string {
	hours := map[string]string{}
	for _, d := range Weekdays {
		if v := strings.TrimSpace(in[d]); v != "" {
			hours[d] = v
		}
	}
	return hours
}

func requireAdmin(sess *auth.Session) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if !sess.Admin {
		return ErrForbidden
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Shelter, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Shelter{}, ErrNotFound
	}
	sh, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Shelter{}, ErrNotFound
	}
	if err != nil {
		return Shelter{}, recordstore.Wrap("get shelter", err)
	}
	return sh, nil
}

func (s *Service) List(ctx context.Context) ([]Shelter, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, recordstore.Wrap("list shelters", err)
	}
	return items, nil
}
