package domain

import (
	"fmt"
	"strings"
)

// Personality selects both the bio tone at generation time and the reply tone
// at runtime. The generator and the responder share this value set.
type Personality string

const (
	Coqueta   Personality = "coqueta"
	Seria     Personality = "seria"
	Divertida Personality = "divertida"
	Picante   Personality = "picante"
	Romantica Personality = "romantica"
)

// Personalities lists every supported personality in a stable order.
func Personalities() []Personality {
	return []Personality{Coqueta, Seria, Divertida, Picante, Romantica}
}

func (p Personality) Valid() bool {
	switch p {
	case Coqueta, Seria, Divertida, Picante, Romantica:
		return true
	}
	return false
}

func (p Personality) String() string { return string(p) }

// NormalizePersonality trims and lower-cases a tag without validating it.
func NormalizePersonality(s string) Personality {
	return Personality(strings.ToLower(strings.TrimSpace(s)))
}

// ParsePersonality accepts the tag case-insensitively.
func ParsePersonality(s string) (Personality, error) {
	p := NormalizePersonality(s)
	if !p.Valid() {
		return "", fmt.Errorf("domain: unknown personality %q", s)
	}
	return p, nil
}
