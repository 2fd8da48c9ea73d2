package roombus

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Feature is either off or on with a value. On the wire an off feature is
// the literal false and an enabled one is the encoded value.
type Feature[T any] struct {
	on    bool
	value T
}

// On returns an enabled feature carrying v.
func On[T any](v T) Feature[T] {
	return Feature[T]{on: true, value: v}
}

// Off returns a disabled feature.
func Off[T any]() Feature[T] {
	return Feature[T]{}
}

// Get returns the value and whether the feature is enabled.
func (f Feature[T]) Get() (T, bool) {
	return f.value, f.on
}

// MarshalJSON implements json.Marshaler.
func (f Feature[T]) MarshalJSON() ([]byte, error) {
	if !f.on {
		return []byte("false"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts false, null or an
// object; true is rejected since it names no settings.
func (f *Feature[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch string(data) {
	case "false", "null":
		*f = Feature[T]{}
		return nil

	case "true":
		return errors.New("feature must be false or an object")
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*f = Feature[T]{on: true, value: v}

	return nil
}
