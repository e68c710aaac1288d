package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common validation errors for Clinic and Location
var (
	ErrEmptyClinicName   = errors.New("clinic name cannot be empty")
	ErrEmptyLocationName = errors.New("location name cannot be empty")
)

// Clinic is a geographic grouping under a program. In this domain the
// clinic is a container: the addressable service points are its locations.
type Clinic struct {
	ID          string    `json:"id"`
	ProgramID   string    `json:"program_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewClinic creates a Clinic under the given program. The ID is derived
// from the short code when present, otherwise from the name.
func NewClinic(programID, name, code string) (*Clinic, error) {
	stem := strings.ToUpper(code)
	if stem == "" {
		stem = nameStem(name, 4)
	}
	c := &Clinic{
		ID:        fmt.Sprintf("%s-%s", stem, shortHex(6)),
		ProgramID: programID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Clinic has valid data.
func (c *Clinic) Validate() error {
	if c.ProgramID == "" {
		return ErrEmptyProgramID
	}
	if c.Name == "" {
		return ErrEmptyClinicName
	}
	return nil
}

// Location is a single service point under a clinic. Configuration values
// imported from clinic specification documents always land here.
type Location struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"clinic_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLocation creates a Location under the given clinic with a generated
// LOC-<hex8> identifier.
func NewLocation(clinicID, name, code, address string) (*Location, error) {
	l := &Location{
		ID:        fmt.Sprintf("LOC-%s", shortHex(8)),
		ClinicID:  clinicID,
		Name:      name,
		Code:      code,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks if the Location has valid data.
func (l *Location) Validate() error {
	if l.ClinicID == "" {
		return ErrEmptyClinicID
	}
	if l.Name == "" {
		return ErrEmptyLocationName
	}
	return nil
}

// nameStem extracts up to n alphanumeric characters from a display name,
// uppercased, for use in generated IDs.
func nameStem(name string, n int) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == n {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "CLIN"
	}
	return strings.ToUpper(b.String())
}
