// Package character defines the character catalog model: the summary record
// shown in listings, the page unit returned by the API, and the projection
// used by detail screens.
package character

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the life status of a character.
type Status int

const (
	// StatusUnknown is used for "unknown" and any value the API may add later.
	StatusUnknown Status = iota

	// StatusAlive marks a living character.
	StatusAlive

	// StatusDead marks a dead character.
	StatusDead
)

// ParseStatus maps a wire value to a Status. Matching is case-insensitive and
// unrecognised values yield StatusUnknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "alive":
		return StatusAlive
	case "dead":
		return StatusDead
	default:
		return StatusUnknown
	}
}

// String returns the wire spelling of the status.
func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "Alive"
	case StatusDead:
		return "Dead"
	default:
		return "unknown"
	}
}

// UnmarshalJSON decodes a status string, defaulting to StatusUnknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// MarshalJSON encodes the wire spelling.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Gender is the gender of a character.
type Gender int

const (
	// GenderUnknown is used for "unknown" and unrecognised values.
	GenderUnknown Gender = iota
	GenderFemale
	GenderMale
	GenderGenderless
)

// ParseGender maps a wire value to a Gender, defaulting to GenderUnknown.
func ParseGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "female":
		return GenderFemale
	case "male":
		return GenderMale
	case "genderless":
		return GenderGenderless
	default:
		return GenderUnknown
	}
}

// String returns the wire spelling of the gender.
func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "Female"
	case GenderMale:
		return "Male"
	case GenderGenderless:
		return "Genderless"
	default:
		return "unknown"
	}
}

// Icon returns a short glyph for display next to the gender.
func (g Gender) Icon() string {
	switch g {
	case GenderFemale:
		return "♀"
	case GenderMale:
		return "♂"
	case GenderGenderless:
		return "⚲"
	default:
		return "?"
	}
}

// UnmarshalJSON decodes a gender string, defaulting to GenderUnknown.
func (g *Gender) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = ParseGender(raw)
	return nil
}

// MarshalJSON encodes the wire spelling.
func (g Gender) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// Summary is one character as shown in a listing.
// Empty strings mean the API did not provide the field.
type Summary struct {
	ID           int
	Name         string
	ImageURL     string
	Status       Status
	Species      string
	Type         string
	Gender       Gender
	OriginName   string
	LocationName string

	// Episodes holds the episode resource URLs the character appears in.
	Episodes []string
	URL      string
	Created  time.Time
}
