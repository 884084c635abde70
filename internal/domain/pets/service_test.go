package pets_test

import (
	"context"
	"testing"

	mem "pet-adoption-marketplace/internal/adapters/storage/memory"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *pets.Service {
	t.Helper()
	ctx := context.Background()

	admin := &auth.Session{UserID: "admin-1", Admin: true}
	sheltersSvc := shelters.NewService(mem.NewShelterRepo())
	sh, err := sheltersSvc.Create(ctx, admin, shelters.CreateInput{Name: "Happy Paws", City: "Akola"})
	require.NoError(t, err)

	svc := pets.NewService(mem.NewPetRepo(), sheltersSvc)
	for _, in := range []pets.CreateInput{
		{ShelterID: sh.ID, Name: "Luna", Species: "dog", Breed: "Labrador", Age: 2, Size: "large", Gender: "female"},
		{ShelterID: sh.ID, Name: "Michi", Species: "Cat", Breed: "Tabby", Age: 1, Size: "small", Gender: "male"},
		{ShelterID: sh.ID, Name: "Kiwi", Species: "bird", Breed: "Budgie", Age: 1, Size: "small", Gender: "male"},
	} {
		_, err := svc.Create(ctx, admin, in)
		require.NoError(t, err)
	}
	return svc
}

func TestCreate_RequiresAdminAndKnownShelter(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()
	in := pets.CreateInput{ShelterID: "ghost", Name: "Rex", Species: "dog", Size: "medium", Gender: "male"}

	_, err := svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Create(ctx, &auth.Session{UserID: "u1"}, in)
	assert.ErrorIs(t, err, pets.ErrForbidden)

	_, err = svc.Create(ctx, &auth.Session{UserID: "a1", Admin: true}, in)
	assert.ErrorIs(t, err, pets.ErrInvalidInput)
}

func TestCreate_RejectsUnknownEnums(t *testing.T) {
	svc := pets.NewService(mem.NewPetRepo(), nil)
	admin := &auth.Session{UserID: "a1", Admin: true}

	_, err := svc.Create(context.Background(), admin, pets.CreateInput{ShelterID: "s1", Name: "Rex", Species: "dragon", Size: "medium", Gender: "male"})
	assert.ErrorIs(t, err, pets.ErrInvalidInput)

	p, err := svc.Create(context.Background(), admin, pets.CreateInput{ShelterID: "s1", Name: "Rex", Species: "DOG", Size: "Medium", Gender: "male"})
	require.NoError(t, err)
	assert.Equal(t, pets.SpeciesDog, p.Species)
	assert.Equal(t, pets.ActivityMedium, p.ActivityLevel)
}

func TestList_Filters(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()

	small, err := svc.List(ctx, pets.ListFilter{Size: "small"})
	require.NoError(t, err)
	assert.Len(t, small, 2)

	cats, err := svc.List(ctx, pets.ListFilter{Species: " CAT "})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Michi", cats[0].Name)

	byBreed, err := svc.List(ctx, pets.ListFilter{Query: "labra"})
	require.NoError(t, err)
	require.Len(t, byBreed, 1)
	assert.Equal(t, "Luna", byBreed[0].Name)

	_, err = svc.List(ctx, pets.ListFilter{Gender: "unknown"})
	assert.ErrorIs(t, err, pets.ErrInvalidInput)
}

func TestGetWithShelter(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()

	all, err := svc.List(ctx, pets.ListFilter{Query: "Luna"})
	require.NoError(t, err)
	require.Len(t, all, 1)

	p, sh, err := svc.GetWithShelter(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Luna", p.Name)
	require.NotNil(t, sh)
	assert.Equal(t, "Happy Paws", sh.Name)

	_, _, err = svc.GetWithShelter(ctx, "missing")
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestUpdate_PartialChangeKeepsOtherFields(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()
	admin := &auth.Session{UserID: "admin-1", Admin: true}

	found, err := svc.List(ctx, pets.ListFilter{Query: "Luna"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	luna := found[0]

	age, vaccinated := 3, true
	got, err := svc.Update(ctx, admin, luna.ID, pets.UpdateInput{
		Age:        &age,
		Vaccinated: &vaccinated,
		GoodWith:   &pets.GoodWith{Kids: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Age)
	assert.True(t, got.Vaccinated)
	assert.True(t, got.GoodWith.Kids)
	assert.Equal(t, "Labrador", got.Breed)
	assert.Equal(t, luna.CreatedAt, got.CreatedAt)

	stored, err := svc.GetByID(ctx, luna.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestUpdate_RejectsInvalidResult(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()
	admin := &auth.Session{UserID: "admin-1", Admin: true}

	found, err := svc.List(ctx, pets.ListFilter{Query: "Michi"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	id := found[0].ID

	dragon, ghost, age := "dragon", "ghost-shelter", 41
	for _, in := range []pets.UpdateInput{
		{Species: &dragon},
		{ShelterID: &ghost},
		{Age: &age},
	} {
		_, err := svc.Update(ctx, admin, id, in)
		assert.ErrorIs(t, err, pets.ErrInvalidInput)
	}

	stored, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, pets.SpeciesCat, stored.Species)

	name := "Rex"
	_, err = svc.Update(ctx, &auth.Session{UserID: "u1"}, id, pets.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, pets.ErrForbidden)
	_, err = svc.Update(ctx, admin, "missing", pets.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestDeleteAndCount(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()
	admin := &auth.Session{UserID: "admin-1", Admin: true}

	n, err := svc.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	found, err := svc.List(ctx, pets.ListFilter{Query: "Kiwi"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	kiwi := found[0]

	n, err = svc.Count(ctx, kiwi.ShelterID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.ErrorIs(t, svc.Delete(ctx, &auth.Session{UserID: "u1"}, kiwi.ID), pets.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, kiwi.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, kiwi.ID), pets.ErrNotFound)

	_, err = svc.GetByID(ctx, kiwi.ID)
	assert.ErrorIs(t, err, pets.ErrNotFound)

	n, err = svc.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Count(ctx, "other-shelter")
	require.NoError(t, err)
	assert.Zero(t, n)
}
