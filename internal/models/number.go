package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Number is a numeric measure that may be missing.
// The zero value is missing, so a struct field left unset never reads as 0.
type Number struct {
	Value float64
	Valid bool
}

// Some returns a present Number. Non-finite values are treated as missing.
func Some(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Missing returns the "no data" sentinel.
func Missing() Number {
	return Number{}
}

// IsMissing reports whether the number carries no value.
func (n Number) IsMissing() bool {
	return !n.Valid
}

// Or returns the value, or fallback when missing.
func (n Number) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// String renders the value, or "n/a" when missing.
func (n Number) String() string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes a missing number as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a JSON number or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*n = Some(v)
	return nil
}
