// Package null models optional JSON fields that distinguish "absent" from
// "explicitly null", which partial updates rely on.
package null

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Value is an optional, nullable T.
type Value[T any] struct {
	Set   bool // key was present in the payload
	Valid bool // value was not null
	V     T
}

// From returns a set, non-null value.
func From[T any](v T) Value[T] {
	return Value[T]{Set: true, Valid: true, V: v}
}

// Null returns a value that was explicitly set to null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true}
}

// Ptr returns nil when the value is absent or null.
func (n Value[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

func (n *Value[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Valid = false
	var zero T
	n.V = zero

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if t, ok := any(&n.V).(*time.Time); ok {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("date must be a string: %w", err)
		}
		// Date inputs submit "" when cleared.
		if s == "" {
			return nil
		}
		parsed, err := ParseTime(s)
		if err != nil {
			return err
		}
		*t = parsed
		n.Valid = true
		return nil
	}

	if err := json.Unmarshal(data, &n.V); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Value[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps and the shorter forms HTML date
// inputs produce. Zone-less values are read in the server's local zone.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
