// Package identity generates the synthetic identities attached to
// provisioned profiles.
package identity

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"profile-agent/internal/domain"
)

const (
	defaultAgeMin      = 22
	defaultAgeMax      = 36
	defaultHeightMin   = 155
	defaultHeightMax   = 178
	defaultCoordJitter = 0.025
	defaultHobbiesMin  = 2
	defaultHobbiesMax  = 4
)

type Options struct {
	AgeMin, AgeMax       int
	HeightMin, HeightMax int
	CoordJitter          float64
	HobbiesMin           int
	HobbiesMax           int
	// SequentialNames picks names by index instead of at random, so a pass
	// with fewer identities than names never repeats one.
	SequentialNames bool
	// NamesFromFolders uses a folder named like a person ("valeria") as the
	// identity name instead of drawing one from the names pool.
	NamesFromFolders bool
}

func (o Options) withDefaults() Options {
	if o.AgeMin <= 0 || o.AgeMax < o.AgeMin {
		o.AgeMin, o.AgeMax = defaultAgeMin, defaultAgeMax
	}
	if o.HeightMin <= 0 || o.HeightMax < o.HeightMin {
		o.HeightMin, o.HeightMax = defaultHeightMin, defaultHeightMax
	}
	if o.CoordJitter <= 0 {
		o.CoordJitter = defaultCoordJitter
	}
	if o.HobbiesMax <= 0 {
		o.HobbiesMin, o.HobbiesMax = defaultHobbiesMin, defaultHobbiesMax
	}
	return o
}

// Generator draws identities from a validated vocabulary.
type Generator struct {
	vocab Vocabulary
	opts  Options
}

func NewGenerator(vocab Vocabulary, opts Options) (*Generator, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	return &Generator{vocab: vocab, opts: opts.withDefaults()}, nil
}

// Generate builds an identity for a corpus folder. The name comes from the
// names pool unless NamesFromFolders is set and the folder is named like a
// person.
func (g *Generator) Generate(r *rand.Rand, folder string, index int) domain.Identity {
	var (
		name string
		ok   bool
	)
	if g.opts.NamesFromFolders {
		name, ok = nameFromFolder(folder)
	}
	if !ok {
		if g.opts.SequentialNames && index >= 0 {
			name = g.vocab.Names[index%len(g.vocab.Names)]
		} else {
			name = PickOne(r, g.vocab.Names)
		}
	}

	city := PickOne(r, g.vocab.Cities)
	city.Lat = Jitter(r, city.Lat, g.opts.CoordJitter)
	city.Lng = Jitter(r, city.Lng, g.opts.CoordJitter)

	personality := PickOne(r, domain.Personalities())
	occupation := PickOne(r, g.vocab.Occupations)
	hobbies := Subset(r, g.vocab.Hobbies, g.opts.HobbiesMin, g.opts.HobbiesMax)

	hobby := ""
	if len(hobbies) > 0 {
		hobby = hobbies[0]
	}
	bio := strings.NewReplacer(
		"{name}", name,
		"{occupation}", occupation,
		"{city}", city.Name,
		"{hobby}", hobby,
	).Replace(PickOne(r, g.vocab.Bios[personality]))

	return domain.Identity{
		Name:        name,
		Age:         IntBetween(r, g.opts.AgeMin, g.opts.AgeMax),
		City:        city,
		Occupation:  occupation,
		Hobbies:     hobbies,
		Personality: personality,
		HeightCM:    IntBetween(r, g.opts.HeightMin, g.opts.HeightMax),
		Bio:         upperFirst(bio),
	}
}

func nameFromFolder(folder string) (string, bool) {
	folder = strings.TrimSpace(folder)
	if len([]rune(folder)) < 3 {
		return "", false
	}
	for _, c := range folder {
		if !unicode.IsLetter(c) {
			return "", false
		}
	}
	if generic[strings.ToLower(folder)] {
		return "", false
	}
	return upperFirst(strings.ToLower(folder)), true
}

var generic = map[string]bool{
	"chica":   true,
	"chico":   true,
	"perfil":  true,
	"fotos":   true,
	"photos":  true,
	"girl":    true,
	"profile": true,
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
