package filters

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// InvalidError reports a filter value the server refuses to query with.
type InvalidError struct {
	Key   string
	Value string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Key, e.Value)
}

// Bounds is an optional numeric range.
type Bounds struct {
	From *float64
	To   *float64
}

// Values is a normalized filter mapping for one Spec.
type Values struct {
	spec    *Spec
	strs    map[string]string
	numbers map[string]float64
	ranges  map[string]Bounds
	flags   map[string]bool
}

func newValues(s *Spec) Values {
	return Values{
		spec:    s,
		strs:    map[string]string{},
		numbers: map[string]float64{},
		ranges:  map[string]Bounds{},
		flags:   map[string]bool{},
	}
}

// Empty returns Values with no constraints.
func (s *Spec) Empty() Values {
	return newValues(s)
}

// Parse reads query parameters into Values. Blank values and unknown keys are
// ignored. Range bounds that are not numbers and unknown bucket names are
// rejected with *InvalidError.
func (s *Spec) Parse(q url.Values) (Values, error) {
	v := newValues(s)
	for _, f := range s.Fields {
		switch f.Kind {
		case Text, Contains:
			if raw := strings.TrimSpace(q.Get(f.Key)); raw != "" {
				v.strs[f.Key] = raw
			}
		case Equal:
			raw := strings.TrimSpace(q.Get(f.Key))
			if raw == "" {
				continue
			}
			if f.Numeric {
				n, err := parseNumber(raw)
				if err != nil {
					return Values{}, &InvalidError{Key: f.Key, Value: raw}
				}
				v.numbers[f.Key] = n
				continue
			}
			v.strs[f.Key] = raw
		case Flag:
			if q.Get(f.Key) == "true" {
				v.flags[f.Key] = true
			}
		case Bucket:
			raw := strings.TrimSpace(q.Get(f.Key))
			if raw == "" {
				continue
			}
			if _, ok := f.Buckets[raw]; !ok {
				return Values{}, &InvalidError{Key: f.Key, Value: raw}
			}
			v.strs[f.Key] = raw
		case Range:
			var b Bounds
			for _, side := range []string{"_from", "_to"} {
				key := f.Key + side
				raw := strings.TrimSpace(q.Get(key))
				if raw == "" {
					continue
				}
				n, err := parseNumber(raw)
				if err != nil {
					return Values{}, &InvalidError{Key: key, Value: raw}
				}
				if side == "_from" {
					b.From = &n
				} else {
					b.To = &n
				}
			}
			if b.From != nil || b.To != nil {
				v.ranges[f.Key] = b
			}
		}
	}
	return v, nil
}

// Normalize prepares raw form input for submission the way the list pages
// do before calling the API: blanks and non-numeric bounds are dropped,
// bounds are clamped to the field's [Min, Max], a lower bound above its
// upper bound drags the upper bound up, and flags are sent only when set.
func (s *Spec) Normalize(form map[string]string) url.Values {
	out := url.Values{}
	for _, f := range s.Fields {
		switch f.Kind {
		case Flag:
			if truthy(form[f.Key]) {
				out.Set(f.Key, "true")
			}
		case Range:
			from, okFrom := clampInput(form[f.Key+"_from"], f)
			to, okTo := clampInput(form[f.Key+"_to"], f)
			if okFrom && okTo && from > to {
				to = from
			}
			if okFrom {
				out.Set(f.Key+"_from", formatNumber(from))
			}
			if okTo {
				out.Set(f.Key+"_to", formatNumber(to))
			}
		default:
			if raw := strings.TrimSpace(form[f.Key]); raw != "" {
				out.Set(f.Key, raw)
			}
		}
	}
	return out
}

// Builder converts v into predicates following the spec's columns.
// An explicit range bound replaces the matching bound of a selected bucket.
func (v Values) Builder() *Builder {
	b := NewBuilder()
	if v.spec == nil {
		return b
	}
	buckets := map[string]Bounds{}
	for _, f := range v.spec.Fields {
		if f.Kind != Bucket {
			continue
		}
		if name, ok := v.strs[f.Key]; ok {
			lohi := f.Buckets[name]
			lo, hi := lohi[0], lohi[1]
			buckets[f.Target] = Bounds{From: &lo, To: &hi}
		}
	}

	for _, f := range v.spec.Fields {
		switch f.Kind {
		case Text:
			b.Search(v.strs[f.Key], f.Columns...)
		case Contains:
			b.Contains(f.Columns[0], v.strs[f.Key])
		case Equal:
			if n, ok := v.numbers[f.Key]; ok {
				b.Equal(f.Columns[0], n)
			} else if s, ok := v.strs[f.Key]; ok {
				b.Equal(f.Columns[0], s)
			}
		case Flag:
			b.Flag(f.Columns[0], v.flags[f.Key])
		case Range:
			bounds := buckets[f.Key]
			if explicit, ok := v.ranges[f.Key]; ok {
				if explicit.From != nil {
					bounds.From = explicit.From
				}
				if explicit.To != nil {
					bounds.To = explicit.To
				}
			}
			b.Range(f.Columns[0], bounds.From, bounds.To)
		}
	}
	return b
}

// Apply adds v's predicates to q.
func (v Values) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return v.Builder().Apply(q)
}

// Query re-encodes v as canonical query parameters (sorted by url.Values.Encode).
func (v Values) Query() url.Values {
	out := url.Values{}
	for k, s := range v.strs {
		out.Set(k, s)
	}
	for k, n := range v.numbers {
		out.Set(k, formatNumber(n))
	}
	for k, b := range v.ranges {
		if b.From != nil {
			out.Set(k+"_from", formatNumber(*b.From))
		}
		if b.To != nil {
			out.Set(k+"_to", formatNumber(*b.To))
		}
	}
	for k, on := range v.flags {
		if on {
			out.Set(k, "true")
		}
	}
	return out
}

func parseNumber(raw string) (float64, error) {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %s", raw)
	}
	return n, nil
}

func clampInput(raw string, f Field) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := parseNumber(raw)
	if err != nil {
		return 0, false
	}
	n = math.Trunc(n)
	if n < f.Min {
		n = f.Min
	}
	if n > f.Max {
		n = f.Max
	}
	return n, true
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
