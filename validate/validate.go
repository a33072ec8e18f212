// Package validate holds the input rules shared by the API server and the terminal client.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Range is an inclusive numeric bound for one named quantity.
type Range struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

// Check reports an error when v lies outside [Min, Max].
func (r Range) Check(v float64) error {
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%s must be between %s", r.Name, r.span())
	}
	return nil
}

// Clamp pulls v into [Min, Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

func (r Range) span() string {
	s := trimFloat(r.Min) + "-" + trimFloat(r.Max)
	if r.Unit != "" {
		s += r.Unit
	}
	return s
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EntryRules groups the independently configured bounds for a race entry.
// DeclaredWeight is the jockey's riding weight; HorseWeight is the horse's
// body weight and only applies when the entry carries one.
type EntryRules struct {
	DeclaredWeight Range
	HorseWeight    Range
	Saddlecloth    Range
	Barrier        Range
}

// DefaultEntryRules returns the regulatory defaults.
func DefaultEntryRules() EntryRules {
	return EntryRules{
		DeclaredWeight: Range{Name: "declared weight", Unit: "kg", Min: 50, Max: 70},
		HorseWeight:    Range{Name: "horse weight", Unit: "kg", Min: 300, Max: 600},
		Saddlecloth:    Range{Name: "saddlecloth", Min: 1, Max: 24},
		Barrier:        Range{Name: "barrier", Min: 1, Max: 24},
	}
}

// Validate rejects inverted ranges.
func (e EntryRules) Validate() error {
	for _, r := range []Range{e.DeclaredWeight, e.HorseWeight, e.Saddlecloth, e.Barrier} {
		if r.Min > r.Max {
			return fmt.Errorf("%s range is inverted (%s > %s)", r.Name, trimFloat(r.Min), trimFloat(r.Max))
		}
	}
	return nil
}

// Entry is the subset of a race entry the rules apply to.
type Entry struct {
	HorseID        int64
	RaceID         int64
	Saddlecloth    int
	Barrier        int
	DeclaredWeight float64
	HorseWeight    *int
}

// Check validates a race entry. The first violation wins.
func (e EntryRules) Check(in Entry) error {
	if in.HorseID <= 0 {
		return errors.New("please select a horse")
	}
	if in.RaceID <= 0 {
		return errors.New("please select a race")
	}
	if err := e.DeclaredWeight.Check(in.DeclaredWeight); err != nil {
		return err
	}
	if err := e.Saddlecloth.Check(float64(in.Saddlecloth)); err != nil {
		return err
	}
	if err := e.Barrier.Check(float64(in.Barrier)); err != nil {
		return err
	}
	if in.HorseWeight != nil {
		if err := e.HorseWeight.Check(float64(*in.HorseWeight)); err != nil {
			return err
		}
	}
	return nil
}

// Registration is the account sign-up input.
type Registration struct {
	FullName      string `json:"fullName"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	LicenseNumber string `json:"licenseNumber"`
}

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, "; ")
}

// Check returns FieldErrors for every rule the registration breaks, or nil.
func (r Registration) Check() error {
	fe := FieldErrors{}
	if utf8.RuneCountInString(strings.TrimSpace(r.FullName)) < 2 {
		fe["fullName"] = "Full name is required (min 2 characters)"
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Username)) < 3 {
		fe["username"] = "Username is required (min 3 characters)"
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		fe["password"] = "Password must be at least 6 characters"
	}
	if strings.TrimSpace(r.LicenseNumber) == "" {
		fe["licenseNumber"] = "License number is required"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}
