package shelters

import "time"

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type Location struct {
	Lat float64
	Lng float64
}

// Shelter es un refugio que publica mascotas.
type Shelter struct {
	ID string

	Name        string
	Address     string
	City        string
	State       string
	ZipCode     string
	PhoneNumber string
	Email       string
	WebsiteURL  string // opcional
	Description string
	ImageURL    string

	Location Location
	Hours    map[string]string // weekday -> "9:00-17:00"

	CreatedAt time.Time
	UpdatedAt time.Time
}
