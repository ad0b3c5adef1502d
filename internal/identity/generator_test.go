package identity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"profile-agent/internal/domain"
)

func mustGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)
	g, err := NewGenerator(vocab, opts)
	require.NoError(t, err)
	return g
}

func TestGenerate_FieldsWithinBounds(t *testing.T) {
	g := mustGenerator(t, Options{})
	vocab, _ := DefaultVocabulary()
	r := NewRand(42)

	for i := 0; i < 200; i++ {
		id := g.Generate(r, "chica1", i)
		require.GreaterOrEqual(t, id.Age, 22)
		require.LessOrEqual(t, id.Age, 36)
		require.GreaterOrEqual(t, id.HeightCM, defaultHeightMin)
		require.LessOrEqual(t, id.HeightCM, defaultHeightMax)
		require.True(t, id.Personality.Valid())
		require.Contains(t, vocab.Names, id.Name)
		require.Contains(t, vocab.Occupations, id.Occupation)
		require.GreaterOrEqual(t, len(id.Hobbies), 2)
		require.LessOrEqual(t, len(id.Hobbies), 4)
		require.NotEmpty(t, id.Bio)
		require.NotContains(t, id.Bio, "{")

		var base domain.City
		for _, c := range vocab.Cities {
			if c.Name == id.City.Name {
				base = c
			}
		}
		require.NotEmpty(t, base.Name)
		require.LessOrEqual(t, math.Abs(id.City.Lat-base.Lat), defaultCoordJitter+1e-9)
		require.LessOrEqual(t, math.Abs(id.City.Lng-base.Lng), defaultCoordJitter+1e-9)
	}
}

func TestGenerate_SameSeedSameIdentity(t *testing.T) {
	g := mustGenerator(t, Options{})
	a := g.Generate(NewRand(7), "chica1", 0)
	b := g.Generate(NewRand(7), "chica1", 0)
	require.Equal(t, a, b)
}

func TestGenerate_CustomAgeRange(t *testing.T) {
	g := mustGenerator(t, Options{AgeMin: 30, AgeMax: 31})
	r := NewRand(1)
	for i := 0; i < 50; i++ {
		age := g.Generate(r, "x1", i).Age
		require.True(t, age == 30 || age == 31)
	}
}

func TestGenerate_NameFromFolder(t *testing.T) {
	g := mustGenerator(t, Options{NamesFromFolders: true})
	require.Equal(t, "Valeria", g.Generate(NewRand(1), "valeria", 0).Name)
	require.Equal(t, "Ñaki", g.Generate(NewRand(1), "ñaki", 0).Name)

	vocab, _ := DefaultVocabulary()
	require.Contains(t, vocab.Names, g.Generate(NewRand(1), "chica1", 0).Name)
}

func TestGenerate_NamesFromPoolByDefault(t *testing.T) {
	g := mustGenerator(t, Options{})
	vocab, _ := DefaultVocabulary()
	for i := 0; i < 20; i++ {
		require.Contains(t, vocab.Names, g.Generate(NewRand(uint64(i+1)), "valeria", i).Name)
	}
}

func TestGenerate_SequentialNames(t *testing.T) {
	g := mustGenerator(t, Options{SequentialNames: true})
	vocab, _ := DefaultVocabulary()
	r := NewRand(3)
	seen := map[string]bool{}
	for i := range vocab.Names {
		name := g.Generate(r, "chica1", i).Name
		require.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestDefaultVocabulary_CoversEveryPersonality(t *testing.T) {
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)
	for _, p := range domain.Personalities() {
		require.NotEmpty(t, vocab.Bios[p], "personality %s", p)
	}
}

func TestParseVocabulary_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"no cities":    "names: [a]\noccupations: [b]\nhobbies: [c]\n",
		"missing bios": "names: [a]\ncities: [{name: X, lat: 1, lng: 2}]\noccupations: [b]\nhobbies: [c]\nbios:\n  seria: [x]\n",
		"unknown bio":  "names: [a]\ncities: [{name: X, lat: 1, lng: 2}]\noccupations: [b]\nhobbies: [c]\nbios:\n  timida: [x]\n",
		"bad yaml":     "names: [",
	}
	for name, raw := range cases {
		_, err := ParseVocabulary([]byte(raw))
		require.ErrorIs(t, err, ErrVocabulary, name)
	}
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	_, err := LoadVocabulary(t.TempDir() + "/nope.yaml")
	require.ErrorIs(t, err, ErrVocabulary)
}

func TestNewGenerator_RejectsInvalidVocabulary(t *testing.T) {
	_, err := NewGenerator(Vocabulary{}, Options{})
	require.ErrorIs(t, err, ErrVocabulary)
}
