// Package optional provides a presence-tracking wrapper for partial updates:
// a field is applied only when it was explicitly provided.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a T together with a flag telling whether it was provided.
// In JSON an absent key leaves the Value unset, while an explicit null sets
// it to the zero T (nil for pointer types), which lets callers clear fields.
type Value[T any] struct {
	value T
	set   bool
}

// Of returns a provided Value.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// None returns an unset Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the wrapped value and whether it was provided.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// IsSet reports whether the value was provided.
func (v Value[T]) IsSet() bool {
	return v.set
}

// IsZero makes `omitzero` drop unset values when marshaling.
func (v Value[T]) IsZero() bool {
	return !v.set
}

// OrElse returns the wrapped value, or def when unset.
func (v Value[T]) OrElse(def T) T {
	if !v.set {
		return def
	}
	return v.value
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	var zero T
	v.value = zero
	v.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &v.value)
}
