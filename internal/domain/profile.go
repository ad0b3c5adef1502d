package domain

import "time"

const (
	MaxPublicPhotos  = 3
	MaxPrivatePhotos = 4
	// MaxPhotos is the cover plus every public and private slot.
	MaxPhotos = 1 + MaxPublicPhotos + MaxPrivatePhotos
)

// City is a named location with coordinates.
type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// Identity is a generated candidate person. It is not modified after creation.
type Identity struct {
	Name        string
	Age         int
	City        City
	Occupation  string
	Hobbies     []string
	Personality Personality
	HeightCM    int
	Bio         string
}

type PhotoRole string

const (
	PhotoCover   PhotoRole = "cover"
	PhotoPublic  PhotoRole = "public"
	PhotoPrivate PhotoRole = "private"
)

// PhotoSet holds photo references partitioned by role.
type PhotoSet struct {
	Cover   string
	Public  []string
	Private []string
}

// Len returns the number of photos in the set.
func (s PhotoSet) Len() int {
	n := len(s.Public) + len(s.Private)
	if s.Cover != "" {
		n++
	}
	return n
}

// AssignPhotoRoles partitions refs positionally: the first becomes the cover,
// the next three are public, the next four are private. Anything beyond that
// is dropped. refs must already be in their stable order.
func AssignPhotoRoles(refs []string) PhotoSet {
	var set PhotoSet
	if len(refs) == 0 {
		return set
	}
	set.Cover = refs[0]
	rest := refs[1:]
	n := min(len(rest), MaxPublicPhotos)
	set.Public = append([]string(nil), rest[:n]...)
	rest = rest[n:]
	n = min(len(rest), MaxPrivatePhotos)
	set.Private = append([]string(nil), rest[:n]...)
	return set
}

// Photo is one stored photo of a profile.
type Photo struct {
	ID       string
	URL      string
	Role     PhotoRole
	Position int
}

// SyntheticProfile is the persisted unit created by a provisioning pass.
// A nil Personality means the profile is not eligible for automated replies.
type SyntheticProfile struct {
	ID           string
	AccountID    string
	SourceFolder string
	Identity     Identity
	Personality  *Personality
	IsFake       bool
	Photos       []Photo
	CreatedAt    time.Time
}

// ResponderEligible reports whether automated replies may be generated for p.
func (p SyntheticProfile) ResponderEligible() bool {
	return p.Personality != nil
}

// NewSyntheticProfile builds a profile from an identity and its photo set.
// Generated profiles are always marked as fake.
func NewSyntheticProfile(id, folder string, ident Identity, photos PhotoSet) SyntheticProfile {
	personality := ident.Personality
	p := SyntheticProfile{
		ID:           id,
		SourceFolder: folder,
		Identity:     ident,
		Personality:  &personality,
		IsFake:       true,
	}
	pos := 0
	add := func(url string, role PhotoRole) {
		p.Photos = append(p.Photos, Photo{URL: url, Role: role, Position: pos})
		pos++
	}
	if photos.Cover != "" {
		add(photos.Cover, PhotoCover)
	}
	for _, u := range photos.Public {
		add(u, PhotoPublic)
	}
	for _, u := range photos.Private {
		add(u, PhotoPrivate)
	}
	return p
}

// CountRoles returns how many photos of each role the profile carries.
func (p SyntheticProfile) CountRoles() map[PhotoRole]int {
	out := make(map[PhotoRole]int, 3)
	for _, ph := range p.Photos {
		out[ph.Role]++
	}
	return out
}

// DeleteStats counts removed rows per table.
type DeleteStats map[string]int64

// Profiles returns the number of deleted profile rows.
func (s DeleteStats) Profiles() int {
	return int(s["profiles"])
}
