// Package recordstore define los errores comunes que devuelven los adapters
// de persistencia (memory, postgres), para que los services los traduzcan
// sin conocer el driver.
package recordstore

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate: violación de unicidad (p.ej. (user_id, pet_id) en wishlists).
	ErrDuplicate = errors.New("record already exists")

	// ErrConflict: el registro existe pero ya no está en el estado esperado,
	// o hay otros registros que todavía lo referencian.
	ErrConflict = errors.New("record changed concurrently")
)

// PersistenceError envuelve fallas del store (constraint, transitorias) tal como
// las ve el caller: se muestran al usuario y se puede reintentar.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("persistence error: %v", e.Err)
	}
	return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Wrap devuelve nil si err es nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
