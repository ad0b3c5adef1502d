package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"profile-agent/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "profiles_test.db"))
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	return db
}

func syntheticProfile(folder string, photos int) domain.SyntheticProfile {
	refs := make([]string, photos)
	for i := range refs {
		refs[i] = "/uploads/" + folder + "/" + string(rune('a'+i)) + ".jpg"
	}
	return domain.NewSyntheticProfile("", folder, domain.Identity{
		Name:        "Lucía",
		Age:         27,
		City:        domain.City{Name: "Madrid", Lat: 40.41, Lng: -3.70},
		Occupation:  "chef",
		Hobbies:     []string{"cocinar", "el cine"},
		Personality: domain.Divertida,
		HeightCM:    165,
		Bio:         "Fan del cine.",
	}, domain.AssignPhotoRoles(refs))
}

func humanProfile() domain.SyntheticProfile {
	return domain.SyntheticProfile{
		Identity: domain.Identity{Name: "Pablo", Age: 30, City: domain.City{Name: "Sevilla"}},
	}
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func link(t *testing.T, db *gorm.DB, table, colA, colB, a, b string) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO "+table+" (id, "+colA+", "+colB+", created_at) VALUES (?, ?, ?, ?)",
		newUUID(), a, b, time.Now(),
	).Error)
}

func TestCreateAndGetProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	created, err := repo.CreateProfile(ctx, syntheticProfile("chica1", 6))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.AccountID)

	got, err := repo.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "chica1", got.SourceFolder)
	require.True(t, got.IsFake)
	require.True(t, got.ResponderEligible())
	require.Equal(t, domain.Divertida, *got.Personality)
	require.Equal(t, []string{"cocinar", "el cine"}, got.Identity.Hobbies)
	require.Len(t, got.Photos, 6)
	require.Equal(t, domain.PhotoCover, got.Photos[0].Role)
	require.Equal(t, map[domain.PhotoRole]int{domain.PhotoCover: 1, domain.PhotoPublic: 3, domain.PhotoPrivate: 2}, got.CountRoles())
	for i, ph := range got.Photos {
		require.Equal(t, i, ph.Position)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	repo := NewProfileRepository(openTestDB(t))
	_, err := repo.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSynthetic_ExcludesHumans(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	_, err := repo.CreateProfile(ctx, syntheticProfile("b", 1))
	require.NoError(t, err)
	_, err = repo.CreateProfile(ctx, syntheticProfile("a", 1))
	require.NoError(t, err)
	_, err = repo.CreateProfile(ctx, humanProfile())
	require.NoError(t, err)

	list, err := repo.ListSynthetic(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].SourceFolder)
	require.Equal(t, "b", list[1].SourceFolder)
}

func TestDeleteProfiles_CascadesInDependencyOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProfileRepository(db)

	fake, err := repo.CreateProfile(ctx, syntheticProfile("chica1", 5))
	require.NoError(t, err)
	human, err := repo.CreateProfile(ctx, humanProfile())
	require.NoError(t, err)

	link(t, db, "likes", "from_profile_id", "to_profile_id", human.ID, fake.ID)
	link(t, db, "favorites", "profile_id", "target_profile_id", human.ID, fake.ID)
	link(t, db, "blocks", "blocker_profile_id", "blocked_profile_id", fake.ID, human.ID)
	link(t, db, "private_photo_access", "owner_profile_id", "viewer_profile_id", fake.ID, human.ID)
	require.NoError(t, db.Exec(
		"INSERT INTO messages (id, sender_profile_id, receiver_profile_id, body, created_at) VALUES (?, ?, ?, ?, ?)",
		newUUID(), human.ID, fake.ID, "hola", time.Now(),
	).Error)

	stats, err := repo.DeleteProfiles(ctx, []string{fake.ID})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Profiles())
	require.Equal(t, int64(5), stats["photos"])
	require.Equal(t, int64(1), stats["accounts"])

	for _, table := range []string{"likes", "favorites", "blocks", "private_photo_access", "messages", "photos"} {
		require.Zero(t, count(t, db, table), table)
	}
	require.Equal(t, int64(1), count(t, db, "profiles"))
	require.Equal(t, int64(1), count(t, db, "accounts"))

	_, err = repo.GetProfile(ctx, human.ID)
	require.NoError(t, err)
}

func TestDeleteProfiles_KeepsSharedAccount(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProfileRepository(db)

	fake, err := repo.CreateProfile(ctx, syntheticProfile("chica1", 1))
	require.NoError(t, err)
	require.NoError(t, db.Create(&ProfileModel{
		ID: newUUID(), AccountID: fake.AccountID, Name: "Otra", Age: 25, City: "Bilbao", Hobbies: []string{},
	}).Error)

	stats, err := repo.DeleteProfiles(ctx, []string{fake.ID})
	require.NoError(t, err)
	require.Zero(t, stats["accounts"])
	require.Equal(t, int64(1), count(t, db, "accounts"))
}

func TestDeleteProfiles_Empty(t *testing.T) {
	repo := NewProfileRepository(openTestDB(t))
	stats, err := repo.DeleteProfiles(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, stats.Profiles())
}

func TestCascadePlan_ParentsLast(t *testing.T) {
	require.Equal(t, "profiles", cascadePlan[len(cascadePlan)-1].table)
	require.Equal(t, "photos", cascadePlan[len(cascadePlan)-2].table)
}

func TestSyntheticEmail(t *testing.T) {
	require.Equal(t, "seed+abc123@synthetic.invalid", syntheticEmail("abc-123"))
}
