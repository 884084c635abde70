package applications

import (
	"context"
	"fmt"
	"sync"

	"pet-adoption-marketplace/internal/ports/auth"
)

// Step es el estado del wizard. El orden numérico es el orden de avance.
type Step int

const (
	StepPersonal Step = iota + 1
	StepHome
	StepExperience
	StepReferences
	StepSubmitted
)

var stepNames = map[Step]string{
	StepPersonal:   "personal",
	StepHome:       "home",
	StepExperience: "experience",
	StepReferences: "references",
	StepSubmitted:  "submitted",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Number es el índice 1..4 que muestra la UI (5 = enviado).
func (s Step) Number() int { return int(s) }

// SectionKey es la clave del borrador que completa este paso.
func (s Step) SectionKey() string {
	switch s {
	case StepPersonal:
		return SectionPersonal
	case StepHome:
		return SectionHome
	case StepExperience:
		return SectionExperience
	case StepReferences:
		return SectionReferences
	default:
		return ""
	}
}

// Draft acumula las secciones validadas. Una sección nil = paso no visitado.
type Draft struct {
	PersonalInfo Section `json:"personalInfo,omitempty"`
	HomeInfo     Section `json:"homeInfo,omitempty"`
	Experience   Section `json:"experience,omitempty"`
	References   Section `json:"references,omitempty"`
}

func (d Draft) Complete() bool {
	return d.PersonalInfo != nil && d.HomeInfo != nil && d.Experience != nil && d.References != nil
}

func (d Draft) Section(step Step) Section {
	switch step {
	case StepPersonal:
		return d.PersonalInfo
	case StepHome:
		return d.HomeInfo
	case StepExperience:
		return d.Experience
	case StepReferences:
		return d.References
	default:
		return nil
	}
}

func (d *Draft) set(step Step, s Section) {
	switch step {
	case StepPersonal:
		d.PersonalInfo = s
	case StepHome:
		d.HomeInfo = s
	case StepExperience:
		d.Experience = s
	case StepReferences:
		d.References = s
	}
}

func (d Draft) clone() Draft {
	return Draft{
		PersonalInfo: cloneSection(d.PersonalInfo),
		HomeInfo:     cloneSection(d.HomeInfo),
		Experience:   cloneSection(d.Experience),
		References:   cloneSection(d.References),
	}
}

func cloneSection(s Section) Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Submitter persiste un borrador completo. Lo implementa Service.
type Submitter interface {
	Submit(ctx context.Context, sess *auth.Session, in SubmitInput) (Application, error)
}

// AdvanceResult describe a dónde quedó el wizard después de un Advance exitoso.
type AdvanceResult struct {
	Step          Step
	ApplicationID string
}

func (r AdvanceResult) Submitted() bool { return r.Step == StepSubmitted }

// View es una copia del estado del wizard para mostrar.
type View struct {
	ID            string
	PetID         string
	Step          Step
	Draft         Draft
	ApplicationID string
}

// Wizard es la máquina de estados de la solicitud de adopción para una mascota.
// Un solo Advance puede estar en vuelo a la vez.
type Wizard struct {
	id    string
	petID string
	sess  *auth.Session
	sub   Submitter

	mu            sync.Mutex
	step          Step
	draft         Draft
	inFlight      bool
	applicationID string
}

// NewWizard arranca en el paso 1 con el borrador vacío. El id se usa
// también como clave de idempotencia del envío.
func NewWizard(id, petID string, sess *auth.Session, sub Submitter) *Wizard {
	return &Wizard{
		id:    id,
		petID: petID,
		sess:  sess,
		sub:   sub,
		step:  StepPersonal,
	}
}

func (w *Wizard) ID() string { return w.id }

// Advance valida data contra el paso actual. Si es válida la guarda en el
// borrador y avanza; en el paso 4 además envía la solicitud. Ante cualquier
// error el paso no cambia y el borrador conserva lo ya validado.
func (w *Wizard) Advance(ctx context.Context, data Section) (AdvanceResult, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return AdvanceResult{}, ErrBusy
	}
	if w.step == StepSubmitted {
		res := AdvanceResult{Step: w.step, ApplicationID: w.applicationID}
		w.mu.Unlock()
		return res, ErrAlreadySubmitted
	}

	step := w.step
	schema, err := SchemaFor(step)
	if err != nil {
		w.mu.Unlock()
		return AdvanceResult{}, err
	}
	section, fieldErrs := schema.Validate(data)
	if fieldErrs != nil {
		w.mu.Unlock()
		return AdvanceResult{Step: step}, &ValidationError{Step: step, Fields: fieldErrs}
	}

	w.draft.set(step, section)
	if step < StepReferences {
		w.step = step + 1
		res := AdvanceResult{Step: w.step}
		w.mu.Unlock()
		return res, nil
	}

	// Paso 4: se envía fuera del lock para no bloquear View.
	w.inFlight = true
	draft := w.draft.clone()
	w.mu.Unlock()

	// Una vez emitido el envío no se cancela aunque el cliente se vaya.
	app, subErr := w.sub.Submit(context.WithoutCancel(ctx), w.sess, SubmitInput{
		PetID: w.petID,
		Key:   w.id,
		Draft: draft,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if subErr != nil {
		return AdvanceResult{Step: w.step}, subErr
	}
	w.step = StepSubmitted
	w.applicationID = app.ID
	return AdvanceResult{Step: w.step, ApplicationID: app.ID}, nil
}

// Retreat vuelve al paso anterior sin tocar el borrador.
func (w *Wizard) Retreat() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return w.step, ErrBusy
	}
	if w.step <= StepPersonal || w.step >= StepSubmitted {
		return w.step, ErrInvalidTransition
	}
	w.step--
	return w.step, nil
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{
		ID:            w.id,
		PetID:         w.petID,
		Step:          w.step,
		Draft:         w.draft.clone(),
		ApplicationID: w.applicationID,
	}
}
