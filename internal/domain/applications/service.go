package applications

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/changefeed"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/google/uuid"
)

// PetLookup es lo que applications necesita del catálogo.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

// ApplicantLookup resuelve el perfil de contacto de un usuario.
type ApplicantLookup func(ctx context.Context, userID string) (Applicant, error)

type Deps struct {
	Repo       Repository
	Pets       PetLookup
	Applicants ApplicantLookup // opcional
	Feed       changefeed.Feed // opcional
	Log        logger.Logger   // opcional
	Wizards    *WizardStore    // opcional
}

type Service struct {
	repo       Repository
	pets       PetLookup
	applicants ApplicantLookup
	feed       changefeed.Feed
	log        logger.Logger
	wizards    *WizardStore
	now        func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:       d.Repo,
		pets:       d.Pets,
		applicants: d.Applicants,
		feed:       d.Feed,
		log:        d.Log,
		wizards:    d.Wizards,
		now:        time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.wizards == nil {
		s.wizards = NewWizardStore(DefaultWizardTTL)
	}
	return s
}

// SubmitInput es lo que llega del wizard (o del envío en un solo paso).
type SubmitInput struct {
	PetID string
	// Key identifica el intento de envío; reintentos con la misma Key
	// devuelven la solicitud ya creada.
	Key   string
	Draft Draft
	// Status es lo que haya mandado el cliente. No se usa: toda solicitud nace pending.
	Status Status
}

// Submit hace exactamente un insert con status=pending y publica el cambio.
func (s *Service) Submit(ctx context.Context, sess *auth.Session, in SubmitInput) (Application, error) {
	if err := sess.Require(); err != nil {
		return Application{}, err
	}
	if !in.Draft.Complete() {
		return Application{}, ErrIncompleteDraft
	}

	petID := strings.TrimSpace(in.PetID)
	if petID == "" {
		return Application{}, ErrInvalidInput
	}
	if _, err := s.pets.GetByID(ctx, petID); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return Application{}, ErrPetNotFound
		}
		return Application{}, recordstore.Wrap("get pet", err)
	}

	key := strings.TrimSpace(in.Key)
	if key == "" {
		key = uuid.NewString()
	}

	now := s.now().UTC()
	app := Application{
		ID:            uuid.NewString(),
		UserID:        sess.UserID,
		PetID:         petID,
		SubmissionKey: key,
		Status:        StatusPending,
		PersonalInfo:  cloneSection(in.Draft.PersonalInfo),
		HomeInfo:      cloneSection(in.Draft.HomeInfo),
		Experience:    cloneSection(in.Draft.Experience),
		References:    cloneSection(in.Draft.References),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, recordstore.ErrDuplicate) {
			return s.existingSubmission(ctx, sess, key)
		}
		metrics.RecordSubmission("failed")
		s.log.Warn("application insert failed", map[string]any{"pet_id": petID, "user_id": sess.UserID, "err": err})
		return Application{}, recordstore.Wrap("insert application", err)
	}

	metrics.RecordSubmission("created")
	s.publish(ctx, changefeed.OpInsert, app)
	return app, nil
}

func (s *Service) existingSubmission(ctx context.Context, sess *auth.Session, key string) (Application, error) {
	prev, err := s.repo.GetBySubmissionKey(ctx, key)
	if err != nil {
		metrics.RecordSubmission("failed")
		return Application{}, recordstore.Wrap("get application by key", err)
	}
	if prev.UserID != sess.UserID {
		metrics.RecordSubmission("failed")
		return Application{}, ErrInvalidInput
	}
	metrics.RecordSubmission("duplicate")
	return prev, nil
}

// StartWizard abre un wizard para una mascota existente.
func (s *Service) StartWizard(ctx context.Context, sess *auth.Session, petID string) (*Wizard, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	petID = strings.TrimSpace(petID)
	if _, err := s.pets.GetByID(ctx, petID); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, recordstore.Wrap("get pet", err)
	}
	return s.wizards.Open(sess, petID, s)
}

func (s *Service) Wizard(sess *auth.Session, id string) (*Wizard, error) {
	return s.wizards.Get(sess, id)
}

// AdvanceWizard avanza el wizard del usuario. Una vez enviada la solicitud
// el wizard sale del store junto con su borrador.
func (s *Service) AdvanceWizard(ctx context.Context, sess *auth.Session, id string, data Section) (AdvanceResult, error) {
	wz, err := s.wizards.Get(sess, id)
	if err != nil {
		return AdvanceResult{}, err
	}
	res, err := wz.Advance(ctx, data)
	if err == nil && res.Submitted() {
		s.wizards.remove(wz.ID())
	}
	return res, err
}

func (s *Service) DiscardWizard(sess *auth.Session, id string) error {
	return s.wizards.Discard(sess, id)
}

// ListMine devuelve las solicitudes del usuario, más nuevas primero.
func (s *Service) ListMine(ctx context.Context, sess *auth.Session) ([]ApplicationWithPet, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.ListByUserWithPet(ctx, sess.UserID)
}

// GetMine oculta las solicitudes ajenas como ErrNotFound.
func (s *Service) GetMine(ctx context.Context, sess *auth.Session, id string) (ApplicationWithPet, error) {
	if err := sess.Require(); err != nil {
		return ApplicationWithPet{}, err
	}
	a, err := s.GetWithPet(ctx, id)
	if err != nil {
		return ApplicationWithPet{}, err
	}
	if a.UserID != sess.UserID && !sess.Admin {
		return ApplicationWithPet{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListAll(ctx context.Context, sess *auth.Session, status Status) ([]ApplicationWithPet, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	status = Status(strings.ToLower(strings.TrimSpace(string(status))))
	if status != "" && !status.Valid() {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListAll(ctx, status)
	if err != nil {
		return nil, recordstore.Wrap("list applications", err)
	}
	return s.withApplicants(ctx, s.withPets(ctx, items)), nil
}

// Summarize cuenta las solicitudes por estado y devuelve las recent más nuevas.
func (s *Service) Summarize(ctx context.Context, sess *auth.Session, recent int) (Summary, error) {
	if err := requireAdmin(sess); err != nil {
		return Summary{}, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Summary{}, recordstore.Wrap("count applications", err)
	}

	sum := Summary{ByStatus: map[Status]int{StatusPending: 0, StatusApproved: 0, StatusRejected: 0}}
	for st, n := range counts {
		sum.ByStatus[st] = n
		sum.Total += n
	}

	if recent > 0 && sum.Total > 0 {
		items, err := s.repo.ListAll(ctx, "")
		if err != nil {
			return Summary{}, recordstore.Wrap("list applications", err)
		}
		if len(items) > recent {
			items = items[:recent]
		}
		sum.Recent = s.withPets(ctx, items)
	}
	return sum, nil
}

// Review es el flujo admin: pending -> approved | rejected.
// Repetir el mismo status no publica nada.
func (s *Service) Review(ctx context.Context, sess *auth.Session, id string, to Status) (Application, error) {
	if err := requireAdmin(sess); err != nil {
		return Application{}, err
	}
	to = Status(strings.ToLower(strings.TrimSpace(string(to))))
	if to != StatusApproved && to != StatusRejected {
		return Application{}, ErrInvalidTransition
	}

	a, err := s.get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if a.Status == to {
		return a, nil
	}
	if a.Status != StatusPending {
		return Application{}, ErrInvalidTransition
	}

	now := s.now().UTC()
	err = s.repo.UpdateStatus(ctx, a.ID, StatusPending, to, now)
	switch {
	case errors.Is(err, recordstore.ErrConflict):
		// otro admin revisó en el medio: gana el primero
		cur, gerr := s.get(ctx, a.ID)
		if gerr != nil {
			return Application{}, gerr
		}
		if cur.Status == to {
			return cur, nil
		}
		return Application{}, ErrInvalidTransition
	case errors.Is(err, recordstore.ErrNotFound):
		return Application{}, ErrNotFound
	case err != nil:
		return Application{}, recordstore.Wrap("update application status", err)
	}
	a.Status = to
	a.UpdatedAt = now

	metrics.RecordReview(string(to))
	s.publish(ctx, changefeed.OpUpdate, a)
	return a, nil
}

// Delete sólo existe en el panel admin.
func (s *Service) Delete(ctx context.Context, sess *auth.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return ErrNotFound
		}
		return recordstore.Wrap("delete application", err)
	}
	s.publish(ctx, changefeed.OpDelete, a)
	return nil
}

// ListByUserWithPet es la lectura masiva del StatusSync.
func (s *Service) ListByUserWithPet(ctx context.Context, userID string) ([]ApplicationWithPet, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, recordstore.Wrap("list applications by user", err)
	}
	return s.withPets(ctx, items), nil
}

// GetWithPet es la relectura de un registro después de un cambio.
func (s *Service) GetWithPet(ctx context.Context, id string) (ApplicationWithPet, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return ApplicationWithPet{}, err
	}
	return ApplicationWithPet{Application: a, Pet: s.petSummary(ctx, a.PetID)}, nil
}

func (s *Service) get(ctx context.Context, id string) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, recordstore.Wrap("get application", err)
	}
	return a, nil
}

func (s *Service) withPets(ctx context.Context, items []Application) []ApplicationWithPet {
	cache := map[string]*PetSummary{}
	out := make([]ApplicationWithPet, 0, len(items))
	for _, a := range items {
		p, ok := cache[a.PetID]
		if !ok {
			p = s.petSummary(ctx, a.PetID)
			cache[a.PetID] = p
		}
		out = append(out, ApplicationWithPet{Application: a, Pet: p})
	}
	return out
}

// withApplicants agrega el perfil de cada solicitante; si la búsqueda falla
// la solicitud se muestra sin él.
func (s *Service) withApplicants(ctx context.Context, items []ApplicationWithPet) []ApplicationWithPet {
	if s.applicants == nil {
		return items
	}
	cache := map[string]*Applicant{}
	for i := range items {
		uid := items[i].UserID
		ap, ok := cache[uid]
		if !ok {
			found, err := s.applicants(ctx, uid)
			if err != nil {
				s.log.Warn("applicant lookup failed", map[string]any{"user_id": uid, "err": err})
			} else {
				ap = &found
			}
			cache[uid] = ap
		}
		items[i].Applicant = ap
	}
	return items
}

// petSummary devuelve nil si la mascota ya no existe; la solicitud se muestra igual.
func (s *Service) petSummary(ctx context.Context, petID string) *PetSummary {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if !errors.Is(err, pets.ErrNotFound) {
			s.log.Warn("pet lookup failed", map[string]any{"pet_id": petID, "err": err})
		}
		return nil
	}
	return &PetSummary{
		ID:       p.ID,
		Name:     p.Name,
		Species:  string(p.Species),
		Breed:    p.Breed,
		ImageURL: p.ImageURL,
	}
}

// publish no falla la operación: la escritura ya es durable y los
// suscriptores se reconcilian al reconectar.
func (s *Service) publish(ctx context.Context, op changefeed.Op, a Application) {
	if s.feed == nil {
		return
	}
	err := s.feed.Publish(ctx, changefeed.Change{
		Table:    changefeed.TableAdoptionApplications,
		Op:       op,
		RecordID: a.ID,
		UserID:   a.UserID,
		At:       s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("change publish failed", map[string]any{"op": string(op), "application_id": a.ID, "err": err})
	}
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

// OpenStatusSync arma (sin arrancar) un sync para el usuario de la sesión.
func (s *Service) OpenStatusSync(sess *auth.Session) (*StatusSync, error) {
	if s.feed == nil {
		return nil, changefeed.ErrClosed
	}
	return NewStatusSync(sess, s, s.feed, SyncOptions{Log: s.log})
}
