package dashboard

import (
	"context"
	"errors"
	"testing"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	sum    applications.Summary
	recent int
}

func (s *stubSummarizer) Summarize(_ context.Context, sess *auth.Session, recent int) (applications.Summary, error) {
	if err := sess.Require(); err != nil {
		return applications.Summary{}, err
	}
	if !sess.Admin {
		return applications.Summary{}, applications.ErrForbidden
	}
	s.recent = recent
	return s.sum, nil
}

func fixed(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestStats_CombinesCounts(t *testing.T) {
	apps := &stubSummarizer{sum: applications.Summary{
		Total:    3,
		ByStatus: map[applications.Status]int{applications.StatusPending: 2, applications.StatusApproved: 1},
	}}
	svc := NewService(Deps{Applications: apps, Pets: fixed(12), Shelters: fixed(2), Products: fixed(4)})

	st, err := svc.Stats(context.Background(), &auth.Session{UserID: "a1", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, RecentApplications, apps.recent)
	assert.Equal(t, 3, st.Applications.Total)
	assert.Equal(t, 12, st.Pets)
	assert.Equal(t, 2, st.Shelters)
	assert.Equal(t, 4, st.Products)
}

func TestStats_AdminOnly(t *testing.T) {
	called := false
	svc := NewService(Deps{
		Applications: &stubSummarizer{},
		Pets: func(context.Context) (int, error) {
			called = true
			return 0, nil
		},
	})

	_, err := svc.Stats(context.Background(), nil)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	_, err = svc.Stats(context.Background(), &auth.Session{UserID: "u1"})
	assert.ErrorIs(t, err, applications.ErrForbidden)
	assert.False(t, called, "no se cuenta nada sin permiso")
}

func TestStats_CountFailureFailsWhole(t *testing.T) {
	down := errors.New("db down")
	svc := NewService(Deps{
		Applications: &stubSummarizer{},
		Pets:         fixed(1),
		Shelters:     func(context.Context) (int, error) { return 0, down },
	})

	_, err := svc.Stats(context.Background(), &auth.Session{UserID: "a1", Admin: true})
	require.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "count shelters")
}

func TestStats_MissingProductCounterIsZero(t *testing.T) {
	svc := NewService(Deps{Applications: &stubSummarizer{}, Pets: fixed(1), Shelters: fixed(1)})

	st, err := svc.Stats(context.Background(), &auth.Session{UserID: "a1", Admin: true})
	require.NoError(t, err)
	assert.Zero(t, st.Products)
}
