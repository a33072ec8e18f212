// Package render turns API rows into tables for a terminal or an HTML page.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jraweb/jraweb/models"
)

const (
	favoriteOn  = "♥"
	favoriteOff = "♡"
)

// Favorites reports whether the current user favorited an id. A nil
// Favorites means nobody is logged in and no toggles are drawn.
type Favorites func(id int64) bool

// Row is one table row.
type Row struct {
	ID       int64
	Cells    []string
	Favorite bool
}

// Table is a rendered listing of one entity kind.
type Table struct {
	// Kind is the singular entity name, e.g. "horse".
	Kind      string
	Headers   []string
	Rows      []Row
	Empty     string
	Favorites bool
}

func newTable(kind, plural string, headers []string, fav Favorites) Table {
	return Table{
		Kind:      kind,
		Headers:   headers,
		Empty:     "No " + plural + " found",
		Favorites: fav != nil,
	}
}

func (t *Table) add(id int64, fav Favorites, cells ...string) {
	r := Row{ID: id, Cells: cells}
	if fav != nil {
		r.Favorite = fav(id)
	}
	t.Rows = append(t.Rows, r)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Horses builds the horse table.
func Horses(horses []models.Horse, fav Favorites) Table {
	t := newTable("horse", "horses", []string{"Name", "Born", "Died", "Races", "Wins", "Losses", "Achievements"}, fav)
	for i := range horses {
		h := &horses[i]
		died := "-"
		if h.DeathYear != nil {
			died = strconv.Itoa(*h.DeathYear)
		}
		t.add(h.ID, fav,
			h.Name,
			strconv.Itoa(h.BirthYear),
			died,
			strconv.Itoa(h.TotalRaces),
			strconv.Itoa(h.TotalWins),
			strconv.Itoa(h.TotalLosses),
			orDash(strings.Join(h.Achievements(), ", ")),
		)
	}
	return t
}

// Races builds the race table.
func Races(races []models.Race, fav Favorites) Table {
	t := newTable("race", "races", []string{"Name", "Racecourse", "Distance", "Grade", "Track", "Direction", "Season", "Status"}, fav)
	for _, r := range races {
		course := "-"
		if r.RacecourseName != nil {
			course = *r.RacecourseName
		}
		t.add(r.ID, fav,
			r.Name,
			course,
			fmt.Sprintf("%dm", r.Distance),
			orDash(r.Rang),
			orDash(r.TrackType),
			orDash(r.Direction),
			orDash(r.Season),
			orDash(r.Status),
		)
	}
	return t
}

// Racecourses builds the racecourse table.
func Racecourses(courses []models.Racecourse, fav Favorites) Table {
	t := newTable("racecourse", "racecourses", []string{"Name", "Location", "Tracks", "Direction", "Main distance", "Corners"}, fav)
	for _, c := range courses {
		t.add(c.ID, fav,
			c.Name,
			orDash(c.Location),
			orDash(c.TrackTypes),
			orDash(c.Direction),
			fmt.Sprintf("%dm", c.MainDistance),
			strconv.Itoa(c.Corners),
		)
	}
	return t
}

// Text writes t as aligned columns.
func (t Table) Text(w io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, t.Empty)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	head := append([]string{"ID"}, t.Headers...)
	if t.Favorites {
		head = append([]string{" "}, head...)
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	for _, r := range t.Rows {
		cells := append([]string{strconv.FormatInt(r.ID, 10)}, r.Cells...)
		if t.Favorites {
			mark := favoriteOff
			if r.Favorite {
				mark = favoriteOn
			}
			cells = append([]string{mark}, cells...)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

var tableTmpl = template.Must(template.New("table").Funcs(template.FuncMap{
	"span": func(t Table) int {
		n := len(t.Headers)
		if t.Favorites {
			n++
		}
		return n
	},
}).Parse(`<table class="{{.Kind}}-table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}{{if .Favorites}}<th>Favorite</th>{{end}}</tr></thead>
<tbody>
{{- $t := . }}
{{- range .Rows}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}{{if $t.Favorites}}<td><button class="favorite-btn{{if .Favorite}} active{{end}}" {{if eq $t.Kind "horse"}}data-horse-id{{else if eq $t.Kind "race"}}data-race-id{{else}}data-racecourse-id{{end}}="{{.ID}}">{{if .Favorite}}♥{{else}}♡{{end}}</button></td>{{end}}</tr>
{{- else}}
<tr><td colspan="{{span $t}}">{{$t.Empty}}</td></tr>
{{- end}}
</tbody>
</table>
`))

// HTML writes t as an escaped HTML table with favorite toggle buttons.
func (t Table) HTML(w io.Writer) error {
	return tableTmpl.Execute(w, t)
}
