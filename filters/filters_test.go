package filters

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderEmpty(t *testing.T) {
	expr, args := NewBuilder().Where()
	assert.Empty(t, expr)
	assert.Empty(t, args)
}

func TestBuilderNeverInlinesValues(t *testing.T) {
	from := 2015.0
	b := NewBuilder().
		Search("Deep'; DROP TABLE horses; --", "r.name", "rc.name").
		Range("h.birth_year", &from, nil).
		Flag("h.triple_crown", true).
		Flag("h.tiara_crown", false).
		Equal("r.season", "spring")

	expr, args := b.Where()
	assert.Equal(t,
		"(LOWER(r.name) LIKE ? ESCAPE '!' OR LOWER(rc.name) LIKE ? ESCAPE '!') AND h.birth_year >= ? AND h.triple_crown = ? AND r.season = ?",
		expr)
	assert.Equal(t, []interface{}{
		"%deep'; drop table horses; --%",
		"%deep'; drop table horses; --%",
		2015.0,
		true,
		"spring",
	}, args)
	assert.NotContains(t, expr, "DROP")
}

func TestSearchEscapesWildcards(t *testing.T) {
	_, args := NewBuilder().Search("50%_Off!", "h.name").Where()
	assert.Equal(t, []interface{}{"%50!%!_off!!%"}, args)

	_, args = NewBuilder().Contains("rc.track_types", "_").Where()
	assert.Equal(t, []interface{}{"%!_%"}, args)
}

func TestParseHorseFilters(t *testing.T) {
	spec := HorseSpec(HorseOptions{OtherAchievements: true})

	q := url.Values{}
	q.Set("birth_year_from", "2015")
	q.Set("triple_crown", "true")
	q.Set("tiara_crown", "false")
	q.Set("other_achievements", "")
	q.Set("unknown", "x")

	v, err := spec.Parse(q)
	require.NoError(t, err)

	expr, args := v.Builder().Where()
	assert.Equal(t, "h.birth_year >= ? AND h.triple_crown = ?", expr)
	assert.Equal(t, []interface{}{2015.0, true}, args)
}

func TestParseRejectsNonNumericBounds(t *testing.T) {
	spec := HorseSpec(HorseOptions{})
	_, err := spec.Parse(url.Values{"wins_to": {"ten"}})

	var inv *InvalidError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "wins_to", inv.Key)
}

func TestOtherAchievementsToggle(t *testing.T) {
	q := url.Values{"other_achievements": {"true"}}

	on, err := HorseSpec(HorseOptions{OtherAchievements: true}).Parse(q)
	require.NoError(t, err)
	expr, _ := on.Builder().Where()
	assert.Equal(t, "h.other_achievements = ?", expr)

	off, err := HorseSpec(HorseOptions{}).Parse(q)
	require.NoError(t, err)
	expr, _ = off.Builder().Where()
	assert.Empty(t, expr)
}

func TestRaceDistanceBuckets(t *testing.T) {
	spec := RaceSpec()

	tests := []struct {
		name     string
		query    url.Values
		wantExpr string
		wantArgs []interface{}
	}{
		{
			name:     "bucket only",
			query:    url.Values{"distance_type": {"mile"}},
			wantExpr: "r.distance >= ? AND r.distance <= ?",
			wantArgs: []interface{}{1400.0, 1600.0},
		},
		{
			name:     "explicit upper bound replaces bucket upper bound",
			query:    url.Values{"distance_type": {"long"}, "distance_to": {"2500"}},
			wantExpr: "r.distance >= ? AND r.distance <= ?",
			wantArgs: []interface{}{2300.0, 2500.0},
		},
		{
			name:     "explicit lower only",
			query:    url.Values{"distance_from": {"1800"}},
			wantExpr: "r.distance >= ?",
			wantArgs: []interface{}{1800.0},
		},
		{
			name:     "search spans race and racecourse names",
			query:    url.Values{"search": {"Tokyo"}},
			wantExpr: "(LOWER(r.name) LIKE ? ESCAPE '!' OR LOWER(rc.name) LIKE ? ESCAPE '!')",
			wantArgs: []interface{}{"%tokyo%", "%tokyo%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := spec.Parse(tt.query)
			require.NoError(t, err)
			expr, args := v.Builder().Where()
			assert.Equal(t, tt.wantExpr, expr)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	_, err := spec.Parse(url.Values{"distance_type": {"marathon"}})
	assert.Error(t, err)
}

func TestRacecourseNumericEqual(t *testing.T) {
	v, err := RacecourseSpec().Parse(url.Values{"corners": {"4"}, "track": {"Dirt"}})
	require.NoError(t, err)
	expr, args := v.Builder().Where()
	assert.Equal(t, "LOWER(rc.track_types) LIKE ? ESCAPE '!' AND rc.corners = ?", expr)
	assert.Equal(t, []interface{}{"%dirt%", 4.0}, args)

	_, err = RacecourseSpec().Parse(url.Values{"corners": {"four"}})
	assert.Error(t, err)
}

func TestNormalizeClampsAndOrders(t *testing.T) {
	spec := HorseSpec(HorseOptions{OtherAchievements: true})

	got := spec.Normalize(map[string]string{
		"search":          "  Deep ",
		"birth_year_from": "1850",
		"birth_year_to":   "abc",
		"wins_from":       "12",
		"wins_to":         "3",
		"losses_to":       "9999",
		"triple_crown":    "on",
		"tiara_crown":     "false",
	})

	assert.Equal(t, "Deep", got.Get("search"))
	assert.Equal(t, "1900", got.Get("birth_year_from"))
	assert.False(t, got.Has("birth_year_to"))
	assert.Equal(t, "12", got.Get("wins_from"))
	assert.Equal(t, "12", got.Get("wins_to"))
	assert.Equal(t, "500", got.Get("losses_to"))
	assert.Equal(t, "true", got.Get("triple_crown"))
	assert.False(t, got.Has("tiara_crown"))

	// normalized output always parses on the server side
	_, err := spec.Parse(got)
	assert.NoError(t, err)
}

func TestValuesQueryRoundTrip(t *testing.T) {
	spec := RaceSpec()
	in := url.Values{"distance_from": {"1200"}, "season": {"autumn"}}
	v, err := spec.Parse(in)
	require.NoError(t, err)
	assert.Equal(t, in.Encode(), v.Query().Encode())
}
