package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/handlers"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/testutil"
)

// legacySource returns a seeded database whose race_entries table has the
// jra_website columns.
func legacySource(t *testing.T) (*bun.DB, *testutil.Fixtures) {
	t.Helper()
	ctx := context.Background()
	src := testutil.NewDB(t)
	fx := testutil.Seed(t, src)
	_, err := src.NewDropTable().Model((*models.RaceEntry)(nil)).IfExists().Exec(ctx)
	require.NoError(t, err)
	_, err = src.NewCreateTable().Model((*legacyRaceEntry)(nil)).Exec(ctx)
	require.NoError(t, err)
	return src, fx
}

func TestCopyTableIdempotent(t *testing.T) {
	ctx := context.Background()
	src := testutil.NewDB(t)
	fx := testutil.Seed(t, src)
	dst := testutil.NewDB(t)

	n, err := copyTable[models.Horse](ctx, src, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, len(fx.Horses), n)

	_, err = copyTable[models.Horse](ctx, src, dst, nil)
	require.NoError(t, err)

	count, err := dst.NewSelect().Model((*models.Horse)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fx.Horses), count)

	var h models.Horse
	require.NoError(t, dst.NewSelect().Model(&h).Where("id = ?", fx.Horses["Orfevre"].ID).Scan(ctx))
	assert.Equal(t, "Orfevre", h.Name)
}

func TestStepsCopyEverything(t *testing.T) {
	ctx := context.Background()
	src, fx := legacySource(t)
	dst := testutil.NewDB(t)

	legacy := &models.Jockey{Name: "Yutaka Take", Username: "take", Password: "plain-secret", LicenseNumber: "JRA-1"}
	_, err := src.NewInsert().Model(legacy).Exec(ctx)
	require.NoError(t, err)
	_, err = src.NewInsert().Model(&models.FavoriteRace{UserID: legacy.ID, RaceID: fx.Races["Japan Cup"].ID}).Exec(ctx)
	require.NoError(t, err)
	_, err = src.NewInsert().Model(&legacyRaceEntry{
		JockeyName: "Yutaka Take", LicenseNumber: "JRA-1",
		HorseID: fx.Horses["Equinox"].ID, RaceID: fx.Races["Japan Cup"].ID,
		Saddlecloth: 1, Barrier: 2, DeclaredWeight: 58, Status: models.EntryApproved,
	}).Exec(ctx)
	require.NoError(t, err)

	got := map[string]int{}
	for _, s := range steps(src, dst, passwordHasher(bcrypt.MinCost)) {
		n, err := s.fn(ctx)
		require.NoError(t, err, s.name)
		got[s.name] = n
	}
	assert.Equal(t, len(fx.Racecourses), got["racecourses"])
	assert.Equal(t, len(fx.Races), got["races"])
	assert.Equal(t, 1, got["jockeys"])
	assert.Equal(t, 1, got["user_favorite_races"])
	assert.Equal(t, 1, got["race_entries"])

	var j models.Jockey
	require.NoError(t, dst.NewSelect().Model(&j).Where("username = ?", "take").Scan(ctx))
	assert.Equal(t, legacy.ID, j.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(j.Password), []byte("plain-secret")))
}

func TestRaceEntriesFromLegacyColumns(t *testing.T) {
	ctx := context.Background()
	src, fx := legacySource(t)
	dst := testutil.NewDB(t)

	submitted := time.Date(2024, 11, 24, 9, 30, 0, 0, time.UTC)
	rows := []legacyRaceEntry{
		{JockeyName: "Yutaka Take", LicenseNumber: "JRA-1", HorseID: fx.Horses["Equinox"].ID, RaceID: fx.Races["Japan Cup"].ID,
			Saddlecloth: 4, Barrier: 7, DeclaredWeight: 58, Status: models.EntryApproved, SubmittedAt: submitted},
		{JockeyName: "Yutaka Take", LicenseNumber: "JRA-1", HorseID: fx.Horses["Orfevre"].ID, RaceID: fx.Races["Arima Kinen"].ID,
			Saddlecloth: 2, Barrier: 3, DeclaredWeight: 57, SubmittedAt: submitted.Add(time.Hour)},
	}
	_, err := src.NewInsert().Model(&rows).Exec(ctx)
	require.NoError(t, err)

	n, err := copyRows(ctx, src, dst, legacyRaceEntry.entry)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []models.RaceEntry
	require.NoError(t, dst.NewSelect().Model(&got).Order("id").Scan(ctx))
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].ID, got[0].ID)
	assert.True(t, submitted.Equal(got[0].CreatedAt), "created_at %v", got[0].CreatedAt)
	assert.Equal(t, models.EntryApproved, got[0].Status)
	assert.Nil(t, got[0].HorseWeight)
	assert.Equal(t, models.EntryPending, got[1].Status)
	assert.Equal(t, 57.0, got[1].DeclaredWeight)
}

func TestPasswordHasherKeepsHashes(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	j := &models.Jockey{Password: string(hash)}
	require.NoError(t, passwordHasher(bcrypt.MinCost)(j))
	assert.Equal(t, string(hash), j.Password)

	assert.False(t, isBcrypt("$2nothash"))
	assert.False(t, isBcrypt("secret1"))
}

func TestDropOptionsClearsEntryChoices(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	for _, key := range handlers.OptionCacheKeys {
		require.NoError(t, mem.Set(ctx, key, []models.Option{{ID: 1, Name: "Equinox"}}, time.Hour))
	}
	require.NoError(t, mem.Set(ctx, "unrelated", 1, time.Hour))

	require.NoError(t, dropOptions(ctx, mem))

	var opts []models.Option
	for _, key := range handlers.OptionCacheKeys {
		ok, err := mem.Get(ctx, key, &opts)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	var n int
	ok, err := mem.Get(ctx, "unrelated", &n)
	require.NoError(t, err)
	assert.True(t, ok)
}
