package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPetNotFound  = errors.New("pet not found")
)

// PetLookup es opcional: si está, se valida que la mascota exista y se arma el listado.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetLookup
	now  func() time.Time
}

func NewService(repo Repository, petsSvc PetLookup) *Service {
	return &Service{
		repo: repo,
		pets: petsSvc,
		now:  time.Now,
	}
}

// Toggle agrega o quita la mascota de favoritos y devuelve el estado nuevo.
// Existencia e insert no son atómicos: si otro request inserta el mismo par
// en el medio, el ErrDuplicate del store se toma como "ya era favorito".
func (s *Service) Toggle(ctx context.Context, sess *auth.Session, petID string) (bool, error) {
	if err := sess.Require(); err != nil {
		return false, err
	}
	petID, err := s.checkPet(ctx, petID)
	if err != nil {
		return false, err
	}

	exists, err := s.repo.Exists(ctx, sess.UserID, petID)
	if err != nil {
		return false, recordstore.Wrap("check favorite", err)
	}

	if exists {
		if err := s.repo.Delete(ctx, sess.UserID, petID); err != nil {
			return false, recordstore.Wrap("delete favorite", err)
		}
		metrics.RecordFavoriteToggle("removed")
		return false, nil
	}

	return s.insert(ctx, sess.UserID, petID)
}

// Set deja el par en el estado pedido; repetirlo no cambia nada.
func (s *Service) Set(ctx context.Context, sess *auth.Session, petID string, favorite bool) (bool, error) {
	if err := sess.Require(); err != nil {
		return false, err
	}
	petID, err := s.checkPet(ctx, petID)
	if err != nil {
		return false, err
	}

	if !favorite {
		if err := s.repo.Delete(ctx, sess.UserID, petID); err != nil {
			return false, recordstore.Wrap("delete favorite", err)
		}
		return false, nil
	}
	return s.insert(ctx, sess.UserID, petID)
}

func (s *Service) IsFavorite(ctx context.Context, sess *auth.Session, petID string) (bool, error) {
	if err := sess.Require(); err != nil {
		return false, err
	}
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return false, ErrInvalidInput
	}
	ok, err := s.repo.Exists(ctx, sess.UserID, petID)
	if err != nil {
		return false, recordstore.Wrap("check favorite", err)
	}
	return ok, nil
}

// Item es un favorito con la mascota resuelta (nil si ya no está publicada).
type Item struct {
	Entry
	Pet *pets.Pet
}

func (s *Service) List(ctx context.Context, sess *auth.Session) ([]Item, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, recordstore.Wrap("list favorites", err)
	}

	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		it := Item{Entry: e}
		if s.pets != nil {
			if p, err := s.pets.GetByID(ctx, e.PetID); err == nil {
				it.Pet = &p
			}
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Service) insert(ctx context.Context, userID, petID string) (bool, error) {
	err := s.repo.Insert(ctx, Entry{UserID: userID, PetID: petID, CreatedAt: s.now().UTC()})
	switch {
	case err == nil:
		metrics.RecordFavoriteToggle("added")
		return true, nil
	case errors.Is(err, recordstore.ErrDuplicate):
		metrics.RecordFavoriteToggle("already")
		return true, nil
	default:
		return false, recordstore.Wrap("insert favorite", err)
	}
}

func (s *Service) checkPet(ctx context.Context, petID string) (string, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return "", ErrInvalidInput
	}
	if s.pets == nil {
		return petID, nil
	}
	if _, err := s.pets.GetByID(ctx, petID); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return "", ErrPetNotFound
		}
		return "", recordstore.Wrap("get pet", err)
	}
	return petID, nil
}
