package applications

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Section es el payload de un paso del formulario ya validado y normalizado.
// Se persiste tal cual (JSONB).
type Section map[string]any

// Claves de sección dentro del borrador.
const (
	SectionPersonal   = "personalInfo"
	SectionHome       = "homeInfo"
	SectionExperience = "experience"
	SectionReferences = "references"
)

// Application es una solicitud de adopción persistida. Las secciones no cambian
// después de crearse; sólo Status lo hace, por acción de un admin.
type Application struct {
	ID            string
	UserID        string
	PetID         string
	SubmissionKey string
	Status        Status

	PersonalInfo Section
	HomeInfo     Section
	Experience   Section
	References   Section

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PetSummary son los campos de la mascota que se muestran junto a la solicitud.
type PetSummary struct {
	ID       string
	Name     string
	Species  string
	Breed    string
	ImageURL string
}

// Applicant son los datos de contacto del solicitante (su perfil, no el formulario).
type Applicant struct {
	FullName string
	Phone    string
}

type ApplicationWithPet struct {
	Application
	Pet *PetSummary
	// Applicant sólo se completa en los listados admin.
	Applicant *Applicant
}

// Summary es lo que el tablero admin muestra de las solicitudes.
type Summary struct {
	Total    int
	ByStatus map[Status]int
	Recent   []ApplicationWithPet
}
