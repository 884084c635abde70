package applications

import (
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/google/uuid"
)

const DefaultWizardTTL = 2 * time.Hour

type wizardEntry struct {
	wizard    *Wizard
	ownerID   string
	expiresAt time.Time
}

// WizardStore guarda los wizards abiertos en memoria. Un wizard vence si no
// se usa durante ttl; al vencer se descarta el borrador (igual que al salir
// de la página).
type WizardStore struct {
	mu      sync.Mutex
	entries map[string]*wizardEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewWizardStore(ttl time.Duration) *WizardStore {
	if ttl <= 0 {
		ttl = DefaultWizardTTL
	}
	return &WizardStore{
		entries: map[string]*wizardEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *WizardStore) Open(sess *auth.Session, petID string, sub Submitter) (*Wizard, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	w := NewWizard(uuid.NewString(), petID, sess, sub)
	s.entries[w.ID()] = &wizardEntry{
		wizard:    w,
		ownerID:   sess.UserID,
		expiresAt: s.now().Add(s.ttl),
	}
	return w, nil
}

// Get devuelve el wizard sólo a su dueño; para cualquier otro es ErrWizardNotFound.
func (s *WizardStore) Get(sess *auth.Session, id string) (*Wizard, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	e, ok := s.entries[strings.TrimSpace(id)]
	if !ok || e.ownerID != sess.UserID {
		return nil, ErrWizardNotFound
	}
	e.expiresAt = s.now().Add(s.ttl)
	return e.wizard, nil
}

func (s *WizardStore) Discard(sess *auth.Session, id string) error {
	if err := sess.Require(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[strings.TrimSpace(id)]
	if !ok || e.ownerID != sess.UserID {
		return ErrWizardNotFound
	}
	delete(s.entries, e.wizard.ID())
	return nil
}

func (s *WizardStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *WizardStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *WizardStore) sweepLocked() {
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
