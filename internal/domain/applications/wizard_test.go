package applications

import (
	"context"
	"testing"

	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	calls  int
	inputs []SubmitInput
	err    error
	// block, si no es nil, frena Submit hasta que se cierre.
	started chan struct{}
	block   chan struct{}
}

func (s *recordingSubmitter) Submit(_ context.Context, _ *auth.Session, in SubmitInput) (Application, error) {
	s.calls++
	s.inputs = append(s.inputs, in)
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return Application{}, s.err
	}
	return Application{ID: "app-1", Status: StatusPending}, nil
}

func TestWizard_FullFlowSubmitsPending(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(Deps{Repo: repo, Pets: testPets()})
	sess := userSession("u1")

	wz, err := svc.StartWizard(context.Background(), sess, "p1")
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, wz.View().Step)

	steps := []Section{personalStep(), homeStep(), experienceStep()}
	want := []Step{StepHome, StepExperience, StepReferences}
	for i, data := range steps {
		res, err := wz.Advance(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, want[i], res.Step)
		assert.False(t, res.Submitted())
	}

	res, err := wz.Advance(context.Background(), referencesStep())
	require.NoError(t, err)
	assert.True(t, res.Submitted())
	require.NotEmpty(t, res.ApplicationID)

	require.Equal(t, 1, repo.count())
	app, err := repo.GetByID(context.Background(), res.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, "p1", app.PetID)
	assert.Equal(t, "u1", app.UserID)
	assert.Equal(t, wz.ID(), app.SubmissionKey)
	assert.Equal(t, 6, app.Experience["hoursAlone"])
	assert.Equal(t, "Jo", app.References["refName"])
}

func TestWizard_HoursAloneOutOfRangeKeepsStep(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(Deps{Repo: repo, Pets: testPets()})

	wz, err := svc.StartWizard(context.Background(), userSession("u1"), "p1")
	require.NoError(t, err)
	_, err = wz.Advance(context.Background(), personalStep())
	require.NoError(t, err)
	_, err = wz.Advance(context.Background(), homeStep())
	require.NoError(t, err)

	res, err := wz.Advance(context.Background(), with(experienceStep(), "hoursAlone", float64(30)))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StepExperience, vErr.Step)
	assert.Equal(t, "Value must be between 0 and 24", vErr.Fields["hoursAlone"])
	assert.Equal(t, StepExperience, res.Step)
	assert.Equal(t, StepExperience, wz.View().Step)
	assert.Nil(t, wz.View().Draft.Experience)
	assert.Zero(t, repo.count())
}

func TestWizard_InvalidAdvanceNeverMovesStep(t *testing.T) {
	invalid := map[Step][]Section{
		StepPersonal:   {{}, without(personalStep(), "zipCode"), with(personalStep(), "email", "nope")},
		StepHome:       {{}, with(homeStep(), "ownRent", "lease")},
		StepExperience: {{}, with(experienceStep(), "hoursAlone", float64(25))},
		StepReferences: {{}, without(referencesStep(), "refName")},
	}
	valid := map[Step]Section{
		StepPersonal:   personalStep(),
		StepHome:       homeStep(),
		StepExperience: experienceStep(),
	}

	sub := &recordingSubmitter{}
	wz := NewWizard("w1", "p1", userSession("u1"), sub)

	for step := StepPersonal; step <= StepReferences; step++ {
		for _, bad := range invalid[step] {
			before := wz.View()
			_, err := wz.Advance(context.Background(), bad)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.NotEmpty(t, vErr.Fields)
			assert.Equal(t, step, wz.View().Step)
			assert.Empty(t, cmp.Diff(before.Draft, wz.View().Draft))
		}
		if data, ok := valid[step]; ok {
			_, err := wz.Advance(context.Background(), data)
			require.NoError(t, err)
		}
	}
	assert.Zero(t, sub.calls)
}

func TestWizard_RetreatKeepsEveryVisitedSection(t *testing.T) {
	sub := &recordingSubmitter{}
	wz := NewWizard("w1", "p1", userSession("u1"), sub)
	ctx := context.Background()

	_, err := wz.Advance(ctx, personalStep())
	require.NoError(t, err)
	_, err = wz.Advance(ctx, homeStep())
	require.NoError(t, err)
	_, err = wz.Advance(ctx, experienceStep())
	require.NoError(t, err)

	// Volver dos pasos y corregir sólo el paso 2.
	step, err := wz.Retreat()
	require.NoError(t, err)
	assert.Equal(t, StepExperience, step)
	step, err = wz.Retreat()
	require.NoError(t, err)
	assert.Equal(t, StepHome, step)

	revisedHome := with(homeStep(), "housing", "condo")
	_, err = wz.Advance(ctx, revisedHome)
	require.NoError(t, err)

	v := wz.View()
	assert.Equal(t, StepExperience, v.Step)
	require.NotNil(t, v.Draft.Experience, "paso 3 no debe perderse")

	_, err = wz.Advance(ctx, experienceStep())
	require.NoError(t, err)
	_, err = wz.Advance(ctx, referencesStep())
	require.NoError(t, err)

	require.Equal(t, 1, sub.calls)
	got := sub.inputs[0].Draft
	assert.True(t, got.Complete())
	assert.Equal(t, "condo", got.HomeInfo["housing"])
	assert.Equal(t, "Sam", got.PersonalInfo["firstName"])
	assert.Equal(t, "w1", sub.inputs[0].Key)
	assert.Equal(t, "p1", sub.inputs[0].PetID)
}

func TestWizard_RetreatOutOfRange(t *testing.T) {
	wz := NewWizard("w1", "p1", userSession("u1"), &recordingSubmitter{})

	step, err := wz.Retreat()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StepPersonal, step)
}

func TestWizard_SubmissionFailureStaysOnReferences(t *testing.T) {
	sub := &recordingSubmitter{err: errStoreDown}
	wz := NewWizard("w1", "p1", userSession("u1"), sub)
	ctx := context.Background()

	for _, s := range []Section{personalStep(), homeStep(), experienceStep()} {
		_, err := wz.Advance(ctx, s)
		require.NoError(t, err)
	}
	before := wz.View().Draft

	res, err := wz.Advance(ctx, referencesStep())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, StepReferences, res.Step)

	v := wz.View()
	assert.Equal(t, StepReferences, v.Step)
	assert.Equal(t, before.PersonalInfo, v.Draft.PersonalInfo)
	assert.Equal(t, before.Experience, v.Draft.Experience)

	// Reintento con la misma clave.
	sub.err = nil
	res, err = wz.Advance(ctx, referencesStep())
	require.NoError(t, err)
	assert.True(t, res.Submitted())
	require.Len(t, sub.inputs, 2)
	assert.Equal(t, sub.inputs[0].Key, sub.inputs[1].Key)

	_, err = wz.Advance(ctx, referencesStep())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestWizard_ConcurrentAdvanceIsBusy(t *testing.T) {
	sub := &recordingSubmitter{started: make(chan struct{}), block: make(chan struct{})}
	wz := NewWizard("w1", "p1", userSession("u1"), sub)
	ctx := context.Background()

	for _, s := range []Section{personalStep(), homeStep(), experienceStep()} {
		_, err := wz.Advance(ctx, s)
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := wz.Advance(ctx, referencesStep())
		done <- err
	}()
	<-sub.started

	_, err := wz.Advance(ctx, referencesStep())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = wz.Retreat()
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StepReferences, wz.View().Step)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, StepSubmitted, wz.View().Step)
	assert.Equal(t, 1, sub.calls)
}
