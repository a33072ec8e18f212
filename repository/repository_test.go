package repository_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/filters"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/testutil"
	"github.com/jraweb/jraweb/validate"
)

func setup(t *testing.T) (*repository.Repositories, *testutil.Fixtures) {
	t.Helper()
	bdb := testutil.NewDB(t)
	fx := testutil.Seed(t, bdb)
	return repository.New(bdb, repository.Options{BcryptCost: bcrypt.MinCost}), fx
}

func parse(t *testing.T, s *filters.Spec, raw string) filters.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	v, err := s.Parse(q)
	require.NoError(t, err)
	return v
}

func horseNames(hs []models.Horse) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Name
	}
	return out
}

func raceNames(rs []models.Race) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func register(t *testing.T, repos *repository.Repositories, username, license string) *models.Jockey {
	t.Helper()
	j, err := repos.Jockeys.Create(context.Background(), validate.Registration{
		FullName:      "Yutaka Take",
		Username:      username,
		Password:      "secret123",
		LicenseNumber: license,
	})
	require.NoError(t, err)
	return j
}

func TestHorsesFindUnfiltered(t *testing.T) {
	repos, _ := setup(t)
	horses, err := repos.Horses.Find(context.Background(), filters.HorseSpec(filters.HorseOptions{}).Empty())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Almond Eye", "Contrail", "Daring Tact", "Deep Impact", "Equinox", "Kitasan Black", "Orfevre",
	}, horseNames(horses))
}

func TestHorsesFindScenarios(t *testing.T) {
	repos, _ := setup(t)
	spec := filters.HorseSpec(filters.HorseOptions{OtherAchievements: true})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"born since 2015 with triple crown", "birth_year_from=2015&triple_crown=true", []string{"Contrail"}},
		{"search is case-insensitive", "search=DEEP", []string{"Deep Impact"}},
		{"tiara crown", "tiara_crown=true", []string{"Almond Eye", "Daring Tact"}},
		{"other achievements", "other_achievements=true", []string{"Equinox", "Kitasan Black"}},
		{"wins range", "wins_from=12&wins_to=12", []string{"Deep Impact", "Kitasan Black", "Orfevre"}},
		{"death year excludes living horses", "death_year_from=1900", []string{"Deep Impact"}},
		{"no match", "search=zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			horses, err := repos.Horses.Find(context.Background(), parse(t, spec, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, horseNames(horses))
		})
	}
}

func TestHorsesSearchAndRangeHold(t *testing.T) {
	repos, _ := setup(t)
	spec := filters.HorseSpec(filters.HorseOptions{})

	horses, err := repos.Horses.Find(context.Background(), parse(t, spec, "search=a&birth_year_from=2008&birth_year_to=2017"))
	require.NoError(t, err)
	require.NotEmpty(t, horses)
	for _, h := range horses {
		assert.Contains(t, strings.ToLower(h.Name), "a")
		assert.GreaterOrEqual(t, h.BirthYear, 2008)
		assert.LessOrEqual(t, h.BirthYear, 2017)
	}
}

func TestHorsesFindByID(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	h, err := repos.Horses.FindByID(ctx, fx.Horses["Orfevre"].ID)
	require.NoError(t, err)
	assert.Equal(t, "Orfevre", h.Name)

	_, err = repos.Horses.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHorsesSearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	bdb := testutil.NewDB(t)
	testutil.Seed(t, bdb)
	for _, name := range []string{"Silver_Arrow", "100% Gold", "Bang!Bang"} {
		_, err := bdb.NewInsert().Model(&models.Horse{Name: name, BirthYear: 2020}).Exec(ctx)
		require.NoError(t, err)
	}
	repos := repository.New(bdb, repository.Options{BcryptCost: bcrypt.MinCost})
	spec := filters.HorseSpec(filters.HorseOptions{})

	tests := []struct {
		term string
		want []string
	}{
		{"_", []string{"Silver_Arrow"}},
		{"%", []string{"100% Gold"}},
		{"!", []string{"Bang!Bang"}},
		{"r_a", []string{"Silver_Arrow"}},
		{"0%", []string{"100% Gold"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			horses, err := repos.Horses.Find(ctx, parse(t, spec, url.Values{"search": {tt.term}}.Encode()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, horseNames(horses))
			for _, h := range horses {
				assert.Contains(t, strings.ToLower(h.Name), strings.ToLower(tt.term))
			}
		})
	}
}

func TestRacesFindJoinsRacecourse(t *testing.T) {
	repos, _ := setup(t)
	races, err := repos.Races.Find(context.Background(), parse(t, filters.RaceSpec(), "search=kyoto"))
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "Tenno Sho (Spring)", races[0].Name)
	require.NotNil(t, races[0].RacecourseName)
	assert.Equal(t, "Kyoto", *races[0].RacecourseName)
}

func TestRacesFindScenarios(t *testing.T) {
	repos, _ := setup(t)
	spec := filters.RaceSpec()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"mile bucket", "distance_type=mile", []string{"February Stakes", "Yasuda Kinen"}},
		{"sprint bucket", "distance_type=sprint", []string{"Ibis Summer Dash", "Sprinters Stakes"}},
		{"sprint lower edge", "distance_type=sprint&distance_to=1000", []string{"Ibis Summer Dash"}},
		{"sprint upper edge", "distance_type=sprint&distance_from=1200", []string{"Sprinters Stakes"}},
		{"just above sprint", "distance_from=1201&distance_to=1399", []string{}},
		{"racecourse name", "racecourse=Tokyo", []string{"February Stakes", "Japan Cup", "Yasuda Kinen"}},
		{"track and season", "track=Turf&season=Spring", []string{"Tenno Sho (Spring)", "Yasuda Kinen"}},
		{"direction", "direction=Straight", []string{"Ibis Summer Dash"}},
		{"status", "status=finished&distance_from=2000", []string{"Tenno Sho (Spring)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			races, err := repos.Races.Find(context.Background(), parse(t, spec, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, raceNames(races))
		})
	}
}

func TestRaceOptionsOnlyUpcoming(t *testing.T) {
	repos, _ := setup(t)
	opts, err := repos.Races.Options(context.Background())
	require.NoError(t, err)

	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Name
	}
	assert.Equal(t, []string{"Arima Kinen", "Ibis Summer Dash", "Japan Cup", "Sprinters Stakes"}, names)
}

func TestHorseOptions(t *testing.T) {
	repos, fx := setup(t)
	opts, err := repos.Horses.Options(context.Background())
	require.NoError(t, err)
	require.Len(t, opts, len(fx.Horses))
	assert.Equal(t, models.Option{ID: fx.Horses["Almond Eye"].ID, Name: "Almond Eye"}, opts[0])
}

func TestRacecoursesFind(t *testing.T) {
	repos, _ := setup(t)
	spec := filters.RacecourseSpec()
	ctx := context.Background()

	courses, err := repos.Racecourses.Find(ctx, parse(t, spec, "direction=Right&distance_from=3000"))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Kyoto", courses[0].Name)

	courses, err = repos.Racecourses.Find(ctx, parse(t, spec, "corners=0"))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Niigata", courses[0].Name)

	courses, err = repos.Racecourses.Find(ctx, parse(t, spec, "track=Steeplechase"))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Nakayama", courses[0].Name)
}

func TestJockeysCreateAndAuthenticate(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	j := register(t, repos, "ytake", "JRA-001")
	assert.NotZero(t, j.ID)
	assert.NotEqual(t, "secret123", j.Password)

	got, err := repos.Jockeys.Authenticate(ctx, "ytake", "secret123")
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, "JRA-001", got.LicenseNumber)

	_, err = repos.Jockeys.Authenticate(ctx, "ytake", "wrong-password")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	_, err = repos.Jockeys.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestJockeysDuplicateUsername(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	first := register(t, repos, "ytake", "JRA-001")
	_, err := repos.Jockeys.Create(ctx, validate.Registration{
		FullName:      "Someone Else",
		Username:      "ytake",
		Password:      "another-pass",
		LicenseNumber: "JRA-999",
	})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	got, err := repos.Jockeys.FindByUsername(ctx, "ytake")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "JRA-001", got.LicenseNumber)
	_, err = repos.Jockeys.Authenticate(ctx, "ytake", "secret123")
	assert.NoError(t, err)
}

func TestJockeysSetPassword(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()
	register(t, repos, "ytake", "JRA-001")

	require.NoError(t, repos.Jockeys.SetPassword(ctx, "ytake", "new-secret"))
	_, err := repos.Jockeys.Authenticate(ctx, "ytake", "secret123")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
	_, err = repos.Jockeys.Authenticate(ctx, "ytake", "new-secret")
	assert.NoError(t, err)

	assert.ErrorIs(t, repos.Jockeys.SetPassword(ctx, "nobody", "x"), repository.ErrNotFound)
}

func newEntry(fx *testutil.Fixtures, license, horse, race string) *models.RaceEntry {
	return &models.RaceEntry{
		JockeyName:     "Yutaka Take",
		LicenseNumber:  license,
		HorseID:        fx.Horses[horse].ID,
		RaceID:         fx.Races[race].ID,
		Saddlecloth:    5,
		Barrier:        3,
		DeclaredWeight: 57.5,
	}
}

func TestEntriesForJockey(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	j := register(t, repos, "ytake", "JRA-001")

	first := newEntry(fx, "JRA-001", "Equinox", "Japan Cup")
	require.NoError(t, repos.Entries.Create(ctx, first))
	second := newEntry(fx, "JRA-001", "Contrail", "Arima Kinen")
	second.Status = models.EntryApproved
	require.NoError(t, repos.Entries.Create(ctx, second))
	require.NoError(t, repos.Entries.Create(ctx, newEntry(fx, "JRA-777", "Orfevre", "Japan Cup")))

	assert.NotZero(t, first.ID)
	assert.Equal(t, models.EntryPending, second.Status)

	jockey, entries, err := repos.Entries.ForJockey(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "JRA-001", jockey.LicenseNumber)
	require.Len(t, entries, 2)

	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, "Arima Kinen", *entries[0].RaceName)
	assert.Equal(t, "Contrail", *entries[0].HorseName)
	assert.Equal(t, "Nakayama", *entries[0].RacecourseName)
	assert.Equal(t, models.EntryPending, entries[0].Status)
	assert.Equal(t, 57.5, entries[0].DeclaredWeight)

	_, _, err = repos.Entries.ForJockey(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJockeyStats(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	register(t, repos, "ytake", "JRA-001")
	register(t, repos, "cdemuro", "JRA-002")

	for i := 0; i < 12; i++ {
		require.NoError(t, repos.Entries.Create(ctx, newEntry(fx, "JRA-001", "Equinox", "Japan Cup")))
	}

	rows, summary, err := repos.Jockeys.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalJockeys)
	assert.Equal(t, 12, summary.TotalEntries)

	byUser := map[string]repository.JockeyStats{}
	for _, r := range rows {
		byUser[r.Username] = r
	}
	assert.Equal(t, 12, byUser["ytake"].TotalEntries)
	assert.Len(t, byUser["ytake"].RaceEntries, 10)
	assert.Equal(t, "Japan Cup", *byUser["ytake"].RaceEntries[0].RaceName)
	assert.Equal(t, 0, byUser["cdemuro"].TotalEntries)
	assert.Empty(t, byUser["cdemuro"].RaceEntries)
}

func TestFavoritesAddIsIdempotent(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	j := register(t, repos, "ytake", "JRA-001")
	id := fx.Horses["Deep Impact"].ID

	require.NoError(t, repos.FavoriteHorses.Add(ctx, j.ID, id))
	require.NoError(t, repos.FavoriteHorses.Add(ctx, j.ID, id))

	horses, err := repos.FavoriteHorses.List(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep Impact"}, horseNames(horses))
}

func TestFavoritesRemove(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	j := register(t, repos, "ytake", "JRA-001")
	id := fx.Horses["Orfevre"].ID

	// removing something never added is not an error
	require.NoError(t, repos.FavoriteHorses.Remove(ctx, j.ID, id))

	require.NoError(t, repos.FavoriteHorses.Add(ctx, j.ID, id))
	require.NoError(t, repos.FavoriteHorses.Remove(ctx, j.ID, id))
	horses, err := repos.FavoriteHorses.List(ctx, j.ID)
	require.NoError(t, err)
	assert.Empty(t, horses)
}

func TestFavoritesListNewestFirstPerUser(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	a := register(t, repos, "ytake", "JRA-001")
	b := register(t, repos, "cdemuro", "JRA-002")

	require.NoError(t, repos.FavoriteRaces.Add(ctx, a.ID, fx.Races["Japan Cup"].ID))
	require.NoError(t, repos.FavoriteRaces.Add(ctx, a.ID, fx.Races["Arima Kinen"].ID))
	require.NoError(t, repos.FavoriteRaces.Add(ctx, b.ID, fx.Races["Yasuda Kinen"].ID))

	races, err := repos.FavoriteRaces.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arima Kinen", "Japan Cup"}, raceNames(races))
	require.NotNil(t, races[0].RacecourseName)
	assert.Equal(t, "Nakayama", *races[0].RacecourseName)

	courses, err := repos.FavoriteRacecourses.List(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)

	require.NoError(t, repos.FavoriteRacecourses.Add(ctx, b.ID, fx.Racecourses["Kyoto"].ID))
	courses, err = repos.FavoriteRacecourses.List(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Kyoto", courses[0].Name)
}
