// Package sqlite is the relational profile store used by provisioning runs.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"profile-agent/internal/domain"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("sqlite: profile not found")

const syntheticEmailDomain = "synthetic.invalid"

type ProfileRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// deleteStep removes rows of one table that reference any of the deleted
// profiles. refs is the number of times the id list is bound.
type deleteStep struct {
	table string
	where string
	refs  int
}

// cascadePlan deletes dependents before their parents.
var cascadePlan = []deleteStep{
	{table: "private_photo_access", where: "owner_profile_id IN ? OR viewer_profile_id IN ?", refs: 2},
	{table: "blocks", where: "blocker_profile_id IN ? OR blocked_profile_id IN ?", refs: 2},
	{table: "favorites", where: "profile_id IN ? OR target_profile_id IN ?", refs: 2},
	{table: "messages", where: "sender_profile_id IN ? OR receiver_profile_id IN ?", refs: 2},
	{table: "likes", where: "from_profile_id IN ? OR to_profile_id IN ?", refs: 2},
	{table: "photos", where: "profile_id IN ?", refs: 1},
	{table: "profiles", where: "id IN ?", refs: 1},
}

// CreateProfile stores the profile, a dedicated account and its photos in
// one transaction. IDs are assigned where missing.
func (r *ProfileRepository) CreateProfile(ctx context.Context, p domain.SyntheticProfile) (domain.SyntheticProfile, error) {
	if p.ID == "" {
		p.ID = newUUID()
	}
	if p.AccountID == "" {
		p.AccountID = newUUID()
	}
	for i := range p.Photos {
		if p.Photos[i].ID == "" {
			p.Photos[i].ID = newUUID()
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account := AccountModel{ID: p.AccountID, Email: syntheticEmail(p.AccountID)}
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		m := toProfileModel(p)
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		p.CreatedAt = m.CreatedAt
		if len(p.Photos) == 0 {
			return nil
		}
		photos := make([]PhotoModel, 0, len(p.Photos))
		for _, ph := range p.Photos {
			photos = append(photos, PhotoModel{
				ID:        ph.ID,
				ProfileID: p.ID,
				URL:       ph.URL,
				Role:      string(ph.Role),
				Position:  ph.Position,
			})
		}
		if err := tx.Create(&photos).Error; err != nil {
			return fmt.Errorf("create photos: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.SyntheticProfile{}, fmt.Errorf("sqlite: CreateProfile %s: %w", p.SourceFolder, err)
	}
	return p, nil
}

// ListSynthetic returns every profile that is flagged fake or carries a
// personality tag. Photos are not loaded.
func (r *ProfileRepository) ListSynthetic(ctx context.Context) ([]domain.SyntheticProfile, error) {
	rows := make([]ProfileModel, 0)
	err := r.db.WithContext(ctx).
		Where("is_fake = ? OR personality IS NOT NULL", true).
		Order("source_folder ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: ListSynthetic: %w", err)
	}
	out := make([]domain.SyntheticProfile, 0, len(rows))
	for _, m := range rows {
		out = append(out, fromProfileModel(m, nil))
	}
	return out, nil
}

// GetProfile loads a profile with its photos ordered by position.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (domain.SyntheticProfile, error) {
	var m ProfileModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SyntheticProfile{}, ErrNotFound
	}
	if err != nil {
		return domain.SyntheticProfile{}, fmt.Errorf("sqlite: GetProfile: %w", err)
	}
	photos := make([]PhotoModel, 0)
	if err := r.db.WithContext(ctx).Where("profile_id = ?", id).Order("position ASC").Find(&photos).Error; err != nil {
		return domain.SyntheticProfile{}, fmt.Errorf("sqlite: GetProfile photos: %w", err)
	}
	return fromProfileModel(m, photos), nil
}

// DeleteProfiles removes the given profiles, everything referencing them and
// accounts left without a profile, all in one transaction.
func (r *ProfileRepository) DeleteProfiles(ctx context.Context, ids []string) (domain.DeleteStats, error) {
	stats := domain.DeleteStats{}
	if len(ids) == 0 {
		return stats, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var accountIDs []string
		if err := tx.Model(&ProfileModel{}).Where("id IN ?", ids).Distinct().Pluck("account_id", &accountIDs).Error; err != nil {
			return fmt.Errorf("collect accounts: %w", err)
		}

		for _, step := range cascadePlan {
			args := make([]any, step.refs)
			for i := range args {
				args[i] = ids
			}
			res := tx.Exec("DELETE FROM "+step.table+" WHERE "+step.where, args...)
			if res.Error != nil {
				return fmt.Errorf("delete %s: %w", step.table, res.Error)
			}
			stats[step.table] = res.RowsAffected
		}

		if len(accountIDs) > 0 {
			res := tx.Exec("DELETE FROM accounts WHERE id IN ? AND id NOT IN (SELECT account_id FROM profiles)", accountIDs)
			if res.Error != nil {
				return fmt.Errorf("delete accounts: %w", res.Error)
			}
			stats["accounts"] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: DeleteProfiles: %w", err)
	}
	return stats, nil
}

func toProfileModel(p domain.SyntheticProfile) ProfileModel {
	var personality *string
	if p.Personality != nil {
		s := string(*p.Personality)
		personality = &s
	}
	hobbies := p.Identity.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	return ProfileModel{
		ID:           p.ID,
		AccountID:    p.AccountID,
		Name:         p.Identity.Name,
		Age:          p.Identity.Age,
		City:         p.Identity.City.Name,
		Lat:          p.Identity.City.Lat,
		Lng:          p.Identity.City.Lng,
		Occupation:   p.Identity.Occupation,
		Hobbies:      hobbies,
		Personality:  personality,
		HeightCM:     p.Identity.HeightCM,
		Bio:          p.Identity.Bio,
		IsFake:       p.IsFake,
		SourceFolder: p.SourceFolder,
	}
}

func fromProfileModel(m ProfileModel, photos []PhotoModel) domain.SyntheticProfile {
	p := domain.SyntheticProfile{
		ID:           m.ID,
		AccountID:    m.AccountID,
		SourceFolder: m.SourceFolder,
		IsFake:       m.IsFake,
		CreatedAt:    m.CreatedAt,
		Identity: domain.Identity{
			Name:       m.Name,
			Age:        m.Age,
			City:       domain.City{Name: m.City, Lat: m.Lat, Lng: m.Lng},
			Occupation: m.Occupation,
			Hobbies:    m.Hobbies,
			HeightCM:   m.HeightCM,
			Bio:        m.Bio,
		},
	}
	if m.Personality != nil {
		personality := domain.Personality(*m.Personality)
		p.Personality = &personality
		p.Identity.Personality = personality
	}
	for _, ph := range photos {
		p.Photos = append(p.Photos, domain.Photo{
			ID:       ph.ID,
			URL:      ph.URL,
			Role:     domain.PhotoRole(ph.Role),
			Position: ph.Position,
		})
	}
	return p
}

func syntheticEmail(accountID string) string {
	return "seed+" + strings.ReplaceAll(accountID, "-", "") + "@" + syntheticEmailDomain
}

var newUUID = func() string {
	return uuid.NewString()
}
