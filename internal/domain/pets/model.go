package pets

import "time"

// Species define las especies publicadas en el catálogo.
// @Enum dog, cat, bird, small-animal, other
type Species string

const (
	SpeciesDog         Species = "dog"
	SpeciesCat         Species = "cat"
	SpeciesBird        Species = "bird"
	SpeciesSmallAnimal Species = "small-animal"
	SpeciesOther       Species = "other"
)

// Size define el tamaño de la mascota.
// @Enum small, medium, large
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Gender define el sexo de la mascota.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

type GoodWith struct {
	Kids bool
	Dogs bool
	Cats bool
}

// Pet es una mascota en adopción. Para el wizard es solo lectura.
type Pet struct {
	ID        string
	ShelterID string

	Name    string
	Species Species
	Breed   string
	Age     int // años
	Size    Size
	Gender  Gender

	Description  string
	ImageURL     string
	HealthStatus string

	// Cuidados
	Vaccinated   bool
	Neutered     bool
	Microchipped bool
	HouseTrained bool

	GoodWith      GoodWith
	ActivityLevel ActivityLevel

	CreatedAt time.Time
	UpdatedAt time.Time
}

func validSpecies(s Species) bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesSmallAnimal, SpeciesOther:
		return true
	}
	return false
}

func validSize(s Size) bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

func validGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}

func validActivity(a ActivityLevel) bool {
	switch a {
	case ActivityLow, ActivityMedium, ActivityHigh:
		return true
	}
	return false
}
