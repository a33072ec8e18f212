package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jraweb/jraweb/models"
)

func sampleHorses() []models.Horse {
	died := 2019
	return []models.Horse{
		{ID: 1, Name: "Deep Impact", BirthYear: 2002, DeathYear: &died, TotalRaces: 14, TotalWins: 12, TotalLosses: 2, TripleCrown: true},
		{ID: 2, Name: "<script>alert(1)</script>", BirthYear: 2019},
	}
}

func TestHorsesTextAnonymous(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Horses(sampleHorses(), nil).Text(&buf))

	out := buf.String()
	assert.Contains(t, out, "Deep Impact")
	assert.Contains(t, out, "Triple Crown")
	assert.Contains(t, out, "2019")
	assert.NotContains(t, out, favoriteOn)
	assert.NotContains(t, out, favoriteOff)
}

func TestHorsesTextFavorites(t *testing.T) {
	var buf bytes.Buffer
	fav := func(id int64) bool { return id == 1 }
	require.NoError(t, Horses(sampleHorses(), fav).Text(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], favoriteOn))
	assert.True(t, strings.HasPrefix(lines[2], favoriteOff))
}

func TestEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Races(nil, nil).Text(&buf))
	assert.Equal(t, "No races found\n", buf.String())

	buf.Reset()
	require.NoError(t, Racecourses(nil, func(int64) bool { return false }).HTML(&buf))
	assert.Contains(t, buf.String(), `<td colspan="7">No racecourses found</td>`)
}

func TestHTMLEscapesAndMarksFavorites(t *testing.T) {
	var buf bytes.Buffer
	fav := func(id int64) bool { return id == 1 }
	require.NoError(t, Horses(sampleHorses(), fav).HTML(&buf))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `class="favorite-btn active" data-horse-id="1">♥</button>`)
	assert.Contains(t, out, `class="favorite-btn" data-horse-id="2">♡</button>`)
}

func TestRacesCells(t *testing.T) {
	name := "Tokyo"
	tbl := Races([]models.Race{{ID: 9, Name: "Japan Cup", RacecourseName: &name, Distance: 2400, Rang: "G1", Status: "upcoming"}}, nil)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"Japan Cup", "Tokyo", "2400m", "G1", "-", "-", "-", "upcoming"}, tbl.Rows[0].Cells)
	assert.False(t, tbl.Favorites)
}
