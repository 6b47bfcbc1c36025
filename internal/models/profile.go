package models

import (
	"time"
)

// Profile is an athlete record kept in the directory store under
// profile:<userId>. Older records carried a single "contact" field; it is
// folded into ContactName when the split fields are absent.
type Profile struct {
	UserID      string `json:"userId,omitempty"`
	Name        string `json:"name"`
	Team        string `json:"team,omitempty"`
	ContactName string `json:"contactName,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`

	// Contact is the legacy combined field, accepted on read only
	Contact string `json:"contact,omitempty"`
}

// Normalize folds legacy fields into the canonical schema
func (p *Profile) Normalize() {
	if p.ContactName == "" && p.Contact != "" {
		p.ContactName = p.Contact
	}
	p.Contact = ""
}

// Dog is a dog record kept in the directory store under dogs:<userId>
type Dog struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Breed     string `json:"breed,omitempty"`
	BirthDate string `json:"birthDate,omitempty"` // YYYY-MM-DD
}

// Birth parses the birth date; the zero time is returned when the date is
// missing or malformed, which sorts the dog as oldest in tie-breaks.
func (d *Dog) Birth() time.Time {
	if d == nil || d.BirthDate == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, d.BirthDate); err == nil {
			return t
		}
	}
	return time.Time{}
}
