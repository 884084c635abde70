package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/domain/cart"
	"pet-adoption-marketplace/internal/domain/favorites"
	"pet-adoption-marketplace/internal/domain/identity"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint}
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(sql.ErrNoRows), recordstore.ErrNotFound)
	assert.ErrorIs(t, mapErr(uniqueErr("wishlists_user_pet_key")), recordstore.ErrDuplicate)

	fk := &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "pets_shelter_id_fkey"}
	assert.ErrorIs(t, mapErr(fk), recordstore.ErrConflict)
	assert.False(t, errors.Is(mapErr(fk), recordstore.ErrDuplicate))

	other := &pgconn.PgError{Code: "22001"}
	assert.False(t, errors.Is(mapErr(other), recordstore.ErrConflict))
}

func TestApplicationsRepo_CreateStoresSectionsAsJSONB(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	a := applications.Application{
		ID: "a1", UserID: "u1", PetID: "p1", SubmissionKey: "wiz-1",
		Status:       applications.StatusPending,
		PersonalInfo: applications.Section{"firstName": "Ana"},
		HomeInfo:     applications.Section{"housing": "house"},
		Experience:   applications.Section{"hoursAlone": 4},
		References:   applications.Section{"refName": "Bo"},
		CreatedAt:    t0, UpdatedAt: t0,
	}

	mock.ExpectExec("INSERT INTO adoption_applications").
		WithArgs("a1", "u1", "p1", "wiz-1", "pending",
			[]byte(`{"firstName":"Ana"}`), []byte(`{"housing":"house"}`),
			[]byte(`{"hoursAlone":4}`), []byte(`{"refName":"Bo"}`),
			t0, t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Create(context.Background(), a))
}

func TestApplicationsRepo_DuplicateSubmissionKey(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectExec("INSERT INTO adoption_applications").
		WillReturnError(uniqueErr("adoption_applications_submission_key"))

	err := r.Create(context.Background(), applications.Application{ID: "a2", SubmissionKey: "wiz-1"})
	assert.ErrorIs(t, err, recordstore.ErrDuplicate)
}

func applicationRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "pet_id", "submission_key", "status",
		"personal_info", "home_info", "experience", "reference_info",
		"created_at", "updated_at",
	})
}

func TestApplicationsRepo_GetBySubmissionKey(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE submission_key = $1")).
		WithArgs("wiz-1").
		WillReturnRows(applicationRow().AddRow(
			"a1", "u1", "p1", "wiz-1", "approved",
			[]byte(`{"firstName":"Ana"}`), []byte(`{}`), []byte(`{}`), []byte(`{"refName":"Bo"}`),
			t0, t0.Add(time.Hour),
		))

	a, err := r.GetBySubmissionKey(context.Background(), "wiz-1")
	require.NoError(t, err)
	assert.Equal(t, applications.StatusApproved, a.Status)
	assert.Equal(t, "Ana", a.PersonalInfo["firstName"])
	assert.Equal(t, "Bo", a.References["refName"])

	mock.ExpectQuery(regexp.QuoteMeta("WHERE submission_key = $1")).
		WithArgs("missing").
		WillReturnRows(applicationRow())

	_, err = r.GetBySubmissionKey(context.Background(), "missing")
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestApplicationsRepo_ListAllByStatus(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1")).
		WithArgs("pending").
		WillReturnRows(applicationRow().
			AddRow("a2", "u1", "p1", nil, "pending", []byte(`{}`), []byte(`{}`), []byte(`{}`), []byte(`{}`), t0.Add(time.Minute), t0).
			AddRow("a1", "u2", "p2", "k", "pending", []byte(`{}`), []byte(`{}`), []byte(`{}`), []byte(`{}`), t0, t0))

	list, err := r.ListAll(context.Background(), applications.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	assert.Empty(t, list[0].SubmissionKey)
}

func TestApplicationsRepo_UpdateStatusMissing(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectExec("UPDATE adoption_applications").
		WithArgs("nope", "approved", t0, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := r.UpdateStatus(context.Background(), "nope", applications.StatusPending, applications.StatusApproved, t0)
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationsRepo_UpdateStatusOnlyFromExpectedStatus(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectExec(`UPDATE adoption_applications SET status = \$2, updated_at = \$3 WHERE id = \$1 AND status = \$4`).
		WithArgs("a1", "rejected", t0, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := r.UpdateStatus(context.Background(), "a1", applications.StatusPending, applications.StatusRejected, t0)
	assert.ErrorIs(t, err, recordstore.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoritesRepo_InsertRaceIsDuplicate(t *testing.T) {
	db, mock := newMock(t)
	r := NewFavoritesRepo(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO wishlists").WithArgs("u1", "p1", t0).
		WillReturnError(uniqueErr("wishlists_user_pet_key"))

	ok, err := r.Exists(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = r.Insert(ctx, favorites.Entry{UserID: "u1", PetID: "p1", CreatedAt: t0})
	assert.ErrorIs(t, err, recordstore.ErrDuplicate)
}

func TestPetsRepo_ListBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	r := NewPetsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE species = $1 AND shelter_id = $2 AND (name ILIKE $3 OR breed ILIKE $3) ORDER BY created_at DESC, id ASC LIMIT $4")).
		WithArgs("dog", "s1", "%lab%", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shelter_id", "name", "species", "breed", "age", "size", "gender",
			"description", "image_url", "health_status",
			"vaccinated", "neutered", "microchipped", "house_trained",
			"good_with_kids", "good_with_dogs", "good_with_cats",
			"activity_level", "created_at", "updated_at",
		}).AddRow(
			"p1", "s1", "Luna", "dog", "Labrador", 2, "large", "female",
			"", "", "healthy",
			true, true, false, true,
			true, true, false,
			"high", t0, t0,
		))

	items, err := r.List(context.Background(), pets.ListFilter{
		Species: pets.SpeciesDog, ShelterID: "s1", Query: "lab", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pets.SizeLarge, items[0].Size)
	assert.True(t, items[0].GoodWith.Dogs)
	assert.Equal(t, pets.ActivityHigh, items[0].ActivityLevel)
}

func TestPetsRepo_CountSharesListFilters(t *testing.T) {
	db, mock := newMock(t)
	r := NewPetsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pets WHERE shelter_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pets")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	n, err := r.Count(context.Background(), pets.ListFilter{ShelterID: "s1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = r.Count(context.Background(), pets.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestPetsRepo_UpdateAndDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	r := NewPetsRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pets WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), pets.Pet{ID: "ghost", Species: pets.SpeciesDog, UpdatedAt: t0})
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), "ghost"), recordstore.ErrNotFound)
}

func TestSheltersRepo_DeleteWithPetsIsConflict(t *testing.T) {
	db, mock := newMock(t)
	r := NewSheltersRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shelters WHERE id = $1")).
		WithArgs("s1").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "pets_shelter_id_fkey"})
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shelters WHERE id = $1")).
		WithArgs("s2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, r.Delete(context.Background(), "s1"), recordstore.ErrConflict)
	assert.NoError(t, r.Delete(context.Background(), "s2"))
}

func TestSheltersRepo_UpdateStoresHoursAsJSONB(t *testing.T) {
	db, mock := newMock(t)
	r := NewSheltersRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE shelters SET")).
		WithArgs("s1", "Happy Paws", "", "Akola", "", "", "", "", "", "", "",
			0.0, 0.0, []byte(`{"monday":"9-5"}`), t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Update(context.Background(), shelters.Shelter{
		ID: "s1", Name: "Happy Paws", City: "Akola",
		Hours:     map[string]string{"monday": "9-5"},
		UpdatedAt: t0,
	})
	require.NoError(t, err)
}

func TestIdentityRepo_ConsumeResetTokenSingleUse(t *testing.T) {
	db, mock := newMock(t)
	r := NewIdentityRepo(db)
	ctx := context.Background()

	mock.ExpectQuery("UPDATE password_resets").WithArgs("h1", t0).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectQuery("UPDATE password_resets").WithArgs("h1", t0).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	uid, err := r.ConsumeResetToken(ctx, "h1", t0)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	_, err = r.ConsumeResetToken(ctx, "h1", t0)
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestIdentityRepo_EmailLookupIsCaseInsensitive(t *testing.T) {
	db, mock := newMock(t)
	r := NewIdentityRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(email) = $1")).WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "Ana", "Ana@Example.com", "hash", t0, t0))

	u, err := r.GetUserByEmail(context.Background(), " ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestIdentityRepo_ProfileUpsertAndMissing(t *testing.T) {
	db, mock := newMock(t)
	r := NewIdentityRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles WHERE user_id = $1")).WithArgs("u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id) DO UPDATE")).
		WithArgs("u1", "Ana Pérez", "+34 600 000 000", t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := r.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
	require.NoError(t, r.SaveProfile(context.Background(), identity.Profile{
		UserID: "u1", FullName: "Ana Pérez", Phone: "+34 600 000 000", UpdatedAt: t0,
	}))
}

func TestApplicationsRepo_CountByStatus(t *testing.T) {
	db, mock := newMock(t)
	r := NewApplicationsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("approved", 1))

	got, err := r.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[applications.Status]int{
		applications.StatusPending:  3,
		applications.StatusApproved: 1,
	}, got)
}

func TestCartRepo_SaveItemUpserts(t *testing.T) {
	db, mock := newMock(t)
	r := NewCartRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id, product_id) DO UPDATE")).
		WithArgs("u1", "prod-1", 3, t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.SaveItem(context.Background(), cart.Item{UserID: "u1", ProductID: "prod-1", Quantity: 3, AddedAt: t0}))
}

func TestProductsRepo_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	r := NewProductsRepo(db)

	mock.ExpectQuery("FROM products WHERE id").WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}
