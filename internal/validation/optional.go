package validation

import (
	"encoding/json"
)

// Optional is a JSON field that remembers whether it was present in the
// payload and whether it was an explicit null. It is used by the update
// payloads where only supplied fields may change.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a present Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Ptr returns nil for an explicit null and a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o Optional[T]) isNull() bool {
	return o.Set && o.Null
}

// validationValue hands the validator a pointer so that zero values supplied
// by the client ("" or 0) are still checked by omitempty rules.
func (o Optional[T]) validationValue() any {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

type optional interface {
	isNull() bool
	validationValue() any
}
