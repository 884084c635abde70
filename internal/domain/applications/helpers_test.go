package applications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/recordstore"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu    sync.Mutex
	byID  map[string]Application
	byKey map[string]string

	createErr error
	listErr   error
	creates   int

	// afterGet corre fuera del lock después de cada GetByID.
	afterGet func()
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Application{}, byKey: map[string]string{}}
}

func (r *testRepo) Create(_ context.Context, a Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byKey[a.SubmissionKey]; ok {
		return recordstore.ErrDuplicate
	}
	r.byID[a.ID] = a
	r.byKey[a.SubmissionKey] = a.ID
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Application, error) {
	r.mu.Lock()
	a, ok := r.byID[id]
	hook := r.afterGet
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return Application{}, recordstore.ErrNotFound
	}
	return a, nil
}

func (r *testRepo) GetBySubmissionKey(_ context.Context, key string) (Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[key]
	if !ok {
		return Application{}, recordstore.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) ListByUser(_ context.Context, userID string) ([]Application, error) {
	return r.list(func(a Application) bool { return a.UserID == userID })
}

func (r *testRepo) ListAll(_ context.Context, status Status) ([]Application, error) {
	return r.list(func(a Application) bool { return status == "" || a.Status == status })
}

func (r *testRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := map[Status]int{}
	for _, a := range r.byID {
		out[a.Status]++
	}
	return out, nil
}

func (r *testRepo) list(keep func(Application) bool) ([]Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Application, 0)
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return recordstore.ErrNotFound
	}
	if a.Status != from {
		return recordstore.ErrConflict
	}
	a.Status = to
	a.UpdatedAt = at
	r.byID[id] = a
	return nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return recordstore.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byKey, a.SubmissionKey)
	return nil
}

func (r *testRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *testRepo) setAfterGet(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterGet = fn
}

func (r *testRepo) setListErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

type stubPets map[string]pets.Pet

func (s stubPets) GetByID(_ context.Context, id string) (pets.Pet, error) {
	p, ok := s[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

var errStoreDown = errors.New("store down")

func testPets() stubPets {
	return stubPets{
		"p1": {ID: "p1", Name: "Luna", Species: pets.SpeciesDog, Breed: "Mestiza"},
		"p2": {ID: "p2", Name: "Michi", Species: pets.SpeciesCat},
	}
}

func userSession(id string) *auth.Session {
	return &auth.Session{UserID: id, Email: id + "@example.com"}
}

func adminSession() *auth.Session {
	return &auth.Session{UserID: "admin-1", Email: "admin@example.com", Admin: true}
}

// Datos válidos para cada paso del formulario.
func personalStep() Section {
	return Section{
		"firstName": "Sam", "lastName": "Lee", "email": "sam@example.com", "phone": "555-0100",
		"address": "1 Main St", "city": "Akola", "state": "MH", "zipCode": "444001",
	}
}

func homeStep() Section {
	return Section{"housing": "house", "ownRent": "own", "hasYard": true, "hasChildren": false, "hasPets": false}
}

func experienceStep() Section {
	return Section{"hadPetsBefore": true, "petExperience": "Owned a dog for 5 years", "hoursAlone": float64(6), "exercisePlan": "Daily walks"}
}

func referencesStep() Section {
	return Section{"refName": "Jo", "refPhone": "555-0200", "refRelationship": "Neighbor"}
}

func completeDraft() Draft {
	return Draft{
		PersonalInfo: personalStep(),
		HomeInfo:     homeStep(),
		Experience:   Section{"hadPetsBefore": true, "petExperience": "Owned a dog for 5 years", "hoursAlone": 6, "exercisePlan": "Daily walks"},
		References:   referencesStep(),
	}
}
