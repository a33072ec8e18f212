// Package filters turns list-page filter input into normalized values and
// parameterized SQL predicates.
package filters

// Kind is the shape of a filter field.
type Kind int

const (
	// Text is a case-insensitive substring search over one or more columns.
	Text Kind = iota
	// Range reads <key>_from and <key>_to as independent numeric bounds.
	Range
	// Flag constrains a boolean column only when explicitly "true".
	Flag
	// Equal is an exact match.
	Equal
	// Contains is a case-insensitive substring match on one column.
	Contains
	// Bucket maps a named bucket onto the bounds of another Range field.
	Bucket
)

// Field describes one filter input.
type Field struct {
	Key     string
	Kind    Kind
	Columns []string

	// Numeric Equal fields bind a number instead of text.
	Numeric bool

	// Min and Max bound client-side clamping for Range fields.
	Min float64
	Max float64

	// Buckets names fixed [lo, hi] bounds applied to the Range field Target.
	Buckets map[string][2]float64
	Target  string
}

// Spec is the filter vocabulary of one list endpoint.
type Spec struct {
	Name   string
	Fields []Field
}

func (s *Spec) field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// HorseOptions toggles optional horse filters.
type HorseOptions struct {
	OtherAchievements bool
}

// DistanceBuckets are the named race-distance categories in metres.
var DistanceBuckets = map[string][2]float64{
	"sprint": {1000, 1200},
	"mile":   {1400, 1600},
	"medium": {1700, 2200},
	"long":   {2300, 3200},
}

// HorseSpec is the filter vocabulary of /api/horses.
func HorseSpec(opts HorseOptions) *Spec {
	fields := []Field{
		{Key: "search", Kind: Text, Columns: []string{"h.name"}},
		{Key: "birth_year", Kind: Range, Columns: []string{"h.birth_year"}, Min: 1900, Max: 2100},
		{Key: "death_year", Kind: Range, Columns: []string{"h.death_year"}, Min: 1900, Max: 2100},
		{Key: "races", Kind: Range, Columns: []string{"h.total_races"}, Min: 0, Max: 500},
		{Key: "wins", Kind: Range, Columns: []string{"h.total_wins"}, Min: 0, Max: 500},
		{Key: "losses", Kind: Range, Columns: []string{"h.total_losses"}, Min: 0, Max: 500},
		{Key: "triple_crown", Kind: Flag, Columns: []string{"h.triple_crown"}},
		{Key: "tiara_crown", Kind: Flag, Columns: []string{"h.tiara_crown"}},
	}
	if opts.OtherAchievements {
		fields = append(fields, Field{Key: "other_achievements", Kind: Flag, Columns: []string{"h.other_achievements"}})
	}
	return &Spec{Name: "horses", Fields: fields}
}

// RaceSpec is the filter vocabulary of /api/races. It assumes the racecourse
// is joined as rc.
func RaceSpec() *Spec {
	return &Spec{Name: "races", Fields: []Field{
		{Key: "search", Kind: Text, Columns: []string{"r.name", "rc.name"}},
		{Key: "racecourse", Kind: Equal, Columns: []string{"rc.name"}},
		{Key: "direction", Kind: Equal, Columns: []string{"r.direction"}},
		{Key: "season", Kind: Equal, Columns: []string{"r.season"}},
		{Key: "track", Kind: Equal, Columns: []string{"r.track_type"}},
		{Key: "rang", Kind: Equal, Columns: []string{"r.rang"}},
		{Key: "status", Kind: Equal, Columns: []string{"r.status"}},
		{Key: "distance_type", Kind: Bucket, Buckets: DistanceBuckets, Target: "distance"},
		{Key: "distance", Kind: Range, Columns: []string{"r.distance"}, Min: 800, Max: 4000},
	}}
}

// RacecourseSpec is the filter vocabulary of /api/racecourses.
func RacecourseSpec() *Spec {
	return &Spec{Name: "racecourses", Fields: []Field{
		{Key: "search", Kind: Text, Columns: []string{"rc.name"}},
		{Key: "track", Kind: Contains, Columns: []string{"rc.track_types"}},
		{Key: "direction", Kind: Equal, Columns: []string{"rc.direction"}},
		{Key: "corners", Kind: Equal, Columns: []string{"rc.corners"}, Numeric: true},
		{Key: "distance", Kind: Range, Columns: []string{"rc.main_distance"}, Min: 800, Max: 4000},
	}}
}
