package identity

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"profile-agent/internal/domain"
)

// ErrVocabulary marks a vocabulary that cannot drive generation.
var ErrVocabulary = errors.New("identity: invalid vocabulary")

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary holds the curated pools identities are drawn from.
type Vocabulary struct {
	Names       []string                        `yaml:"names"`
	Cities      []domain.City                   `yaml:"cities"`
	Occupations []string                        `yaml:"occupations"`
	Hobbies     []string                        `yaml:"hobbies"`
	Bios        map[domain.Personality][]string `yaml:"bios"`
}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a YAML vocabulary file.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("%w: read %s: %v", ErrVocabulary, path, err)
	}
	return ParseVocabulary(data)
}

func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("%w: decode: %v", ErrVocabulary, err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Validate checks every pool is populated and that bios exist for exactly
// the supported personalities.
func (v Vocabulary) Validate() error {
	switch {
	case len(v.Names) == 0:
		return fmt.Errorf("%w: names pool is empty", ErrVocabulary)
	case len(v.Cities) == 0:
		return fmt.Errorf("%w: cities pool is empty", ErrVocabulary)
	case len(v.Occupations) == 0:
		return fmt.Errorf("%w: occupations pool is empty", ErrVocabulary)
	case len(v.Hobbies) == 0:
		return fmt.Errorf("%w: hobbies pool is empty", ErrVocabulary)
	}
	for p := range v.Bios {
		if !p.Valid() {
			return fmt.Errorf("%w: bios for unknown personality %q", ErrVocabulary, p)
		}
	}
	for _, p := range domain.Personalities() {
		if len(v.Bios[p]) == 0 {
			return fmt.Errorf("%w: no bios for personality %q", ErrVocabulary, p)
		}
	}
	return nil
}
