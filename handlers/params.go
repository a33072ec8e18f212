package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// jsonNumber accepts a number, a numeric string, or null. Form posts send
// numbers as strings, so both are accepted.
type jsonNumber struct {
	Value float64
	Valid bool
}

func (n *jsonNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = jsonNumber{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = jsonNumber{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", s)
		}
		*n = jsonNumber{Value: f, Valid: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected number, numeric string, or null")
	}
	*n = jsonNumber{Value: f, Valid: true}
	return nil
}

// Whole reports whether n holds an integer value.
func (n jsonNumber) Whole() bool {
	return n.Valid && n.Value == math.Trunc(n.Value) && !math.IsInf(n.Value, 0)
}

func (n jsonNumber) Int64() int64 {
	return int64(n.Value)
}

// ID returns n as a positive identifier.
func (n jsonNumber) ID() (int64, bool) {
	if !n.Whole() || n.Value <= 0 {
		return 0, false
	}
	return n.Int64(), true
}
