package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrForbidden    = errors.New("forbidden")
)

const maxListLimit = 100

// ShelterReader es lo único que pets necesita de shelters.
type ShelterReader interface {
	GetByID(ctx context.Context, id string) (shelters.Shelter, error)
}

type Service struct {
	repo     Repository
	shelters ShelterReader
	now      func() time.Time
}

func NewService(repo Repository, sheltersSvc ShelterReader) *Service {
	return &Service{
		repo:     repo,
		shelters: sheltersSvc,
		now:      time.Now,
	}
}

type CreateInput struct {
	ShelterID     string
	Name          string
	Species       string
	Breed         string
	Age           int
	Size          string
	Gender        string
	Description   string
	ImageURL      string
	HealthStatus  string
	Vaccinated    bool
	Neutered      bool
	Microchipped  bool
	HouseTrained  bool
	GoodWith      GoodWith
	ActivityLevel string
}

// Create publica una mascota (solo admin).
func (s *Service) Create(ctx context.Context, sess *auth.Session, in CreateInput) (Pet, error) {
	if err := requireAdmin(sess); err != nil {
		return Pet{}, err
	}

	name := strings.TrimSpace(in.Name)
	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	size := Size(strings.ToLower(strings.TrimSpace(in.Size)))
	gender := Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
	activity := ActivityLevel(strings.ToLower(strings.TrimSpace(in.ActivityLevel)))
	if activity == "" {
		activity = ActivityMedium
	}

	now := s.now()
	p := Pet{
		ID:            uuid.NewString(),
		ShelterID:     strings.TrimSpace(in.ShelterID),
		Name:          name,
		Species:       species,
		Breed:         strings.TrimSpace(in.Breed),
		Age:           in.Age,
		Size:          size,
		Gender:        gender,
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		HealthStatus:  strings.TrimSpace(in.HealthStatus),
		Vaccinated:    in.Vaccinated,
		Neutered:      in.Neutered,
		Microchipped:  in.Microchipped,
		HouseTrained:  in.HouseTrained,
		GoodWith:      in.GoodWith,
		ActivityLevel: activity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.validate(ctx, p); err != nil {
		return Pet{}, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, recordstore.Wrap("insert pet", err)
	}
	return p, nil
}

// UpdateInput: nil = no tocar el campo.
type UpdateInput struct {
	ShelterID     *string
	Name          *string
	Species       *string
	Breed         *string
	Age           *int
	Size          *string
	Gender        *string
	Description   *string
	ImageURL      *string
	HealthStatus  *string
	Vaccinated    *bool
	Neutered      *bool
	Microchipped  *bool
	HouseTrained  *bool
	GoodWith      *GoodWith
	ActivityLevel *string
}

// Update aplica un cambio parcial (solo admin) y revalida la mascota completa.
func (s *Service) Update(ctx context.Context, sess *auth.Session, id string, in UpdateInput) (Pet, error) {
	if err := requireAdmin(sess); err != nil {
		return Pet{}, err
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	setText(&p.ShelterID, in.ShelterID)
	setText(&p.Name, in.Name)
	setText(&p.Breed, in.Breed)
	setText(&p.Description, in.Description)
	setText(&p.ImageURL, in.ImageURL)
	setText(&p.HealthStatus, in.HealthStatus)
	if in.Species != nil {
		p.Species = Species(strings.ToLower(strings.TrimSpace(*in.Species)))
	}
	if in.Size != nil {
		p.Size = Size(strings.ToLower(strings.TrimSpace(*in.Size)))
	}
	if in.Gender != nil {
		p.Gender = Gender(strings.ToLower(strings.TrimSpace(*in.Gender)))
	}
	if in.ActivityLevel != nil {
		p.ActivityLevel = ActivityLevel(strings.ToLower(strings.TrimSpace(*in.ActivityLevel)))
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Vaccinated != nil {
		p.Vaccinated = *in.Vaccinated
	}
	if in.Neutered != nil {
		p.Neutered = *in.Neutered
	}
	if in.Microchipped != nil {
		p.Microchipped = *in.Microchipped
	}
	if in.HouseTrained != nil {
		p.HouseTrained = *in.HouseTrained
	}
	if in.GoodWith != nil {
		p.GoodWith = *in.GoodWith
	}

	if err := s.validate(ctx, p); err != nil {
		return Pet{}, err
	}
	p.UpdatedAt = s.now()

	err = s.repo.Update(ctx, p)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Pet{}, ErrNotFound
	}
	if err != nil {
		return Pet{}, recordstore.Wrap("update pet", err)
	}
	return p, nil
}

// Delete quita la mascota del catálogo. Sus solicitudes y favoritos se
// borran en cascada en Postgres.
func (s *Service) Delete(ctx context.Context, sess *auth.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return recordstore.Wrap("delete pet", err)
	}
	return nil
}

// Count cuenta las mascotas publicadas; shelterID vacío = todas.
func (s *Service) Count(ctx context.Context, shelterID string) (int, error) {
	n, err := s.repo.Count(ctx, ListFilter{ShelterID: strings.TrimSpace(shelterID)})
	if err != nil {
		return 0, recordstore.Wrap("count pets", err)
	}
	return n, nil
}

func (s *Service) validate(ctx context.Context, p Pet) error {
	if p.Name == "" || !validSpecies(p.Species) || !validSize(p.Size) || !validGender(p.Gender) || !validActivity(p.ActivityLevel) {
		return ErrInvalidInput
	}
	if p.Age < 0 || p.Age > 40 {
		return ErrInvalidInput
	}
	if p.ShelterID == "" {
		return ErrInvalidInput
	}
	if s.shelters != nil {
		if _, err := s.shelters.GetByID(ctx, p.ShelterID); err != nil {
			if errors.Is(err, shelters.ErrNotFound) {
				return ErrInvalidInput
			}
			return err
		}
	}
	return nil
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

func setText(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Pet{}, ErrNotFound
	}
	if err != nil {
		return Pet{}, recordstore.Wrap("get pet", err)
	}
	return p, nil
}

// GetWithShelter devuelve la mascota y su refugio (si todavía existe).
func (s *Service) GetWithShelter(ctx context.Context, id string) (Pet, *shelters.Shelter, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, nil, err
	}
	if s.shelters == nil || p.ShelterID == "" {
		return p, nil, nil
	}
	sh, err := s.shelters.GetByID(ctx, p.ShelterID)
	if err != nil {
		// refugio borrado: se muestra la mascota igual
		return p, nil, nil
	}
	return p, &sh, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Pet, error) {
	filter.Species = Species(strings.ToLower(strings.TrimSpace(string(filter.Species))))
	filter.Size = Size(strings.ToLower(strings.TrimSpace(string(filter.Size))))
	filter.Gender = Gender(strings.ToLower(strings.TrimSpace(string(filter.Gender))))
	filter.Query = strings.TrimSpace(filter.Query)

	if filter.Species != "" && !validSpecies(filter.Species) {
		return nil, ErrInvalidInput
	}
	if filter.Size != "" && !validSize(filter.Size) {
		return nil, ErrInvalidInput
	}
	if filter.Gender != "" && !validGender(filter.Gender) {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, recordstore.Wrap("list pets", err)
	}
	return items, nil
}
