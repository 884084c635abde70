package applications

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("application not found")
	ErrForbidden         = errors.New("forbidden")
	ErrPetNotFound       = errors.New("pet not found")
	ErrIncompleteDraft   = errors.New("application draft is incomplete")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Errores del wizard.
	ErrBusy             = errors.New("wizard: another step is in flight")
	ErrAlreadySubmitted = errors.New("wizard: already submitted")
	ErrBadState         = errors.New("wizard: operation not valid in current step")
	ErrWizardNotFound   = errors.New("wizard: session not found")
)

// ValidationError trae un mensaje por campo. El paso del wizard no cambia.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("validation failed at %s: %s", e.Step, strings.Join(parts, "; "))
}

// SyncError: falló la lectura inicial o la suscripción del StatusSync.
// No es fatal; la vista muestra datos viejos.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("status sync: %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
