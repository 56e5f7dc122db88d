// Package optional provides a JSON field type that distinguishes an
// absent key from an explicit null, so merge-patch updates can tell
// "leave unchanged" apart from "clear this field".
package optional

import "encoding/json"

// Field wraps a value in a merge-patch request body. The zero value
// means the key was absent from the payload.
type Field[T any] struct {
	value T
	set   bool
	valid bool
}

// Of returns a set, non-null field. Used in tests and internal callers.
func Of[T any](value T) Field[T] {
	return Field[T]{value: value, set: true, valid: true}
}

// Null returns a set field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload, which
// is what makes the absent/null distinction observable.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if string(data) == "null" {
		f.valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.value); err != nil {
		return err
	}
	f.valid = true
	return nil
}

// IsSet reports whether the key was present in the payload.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the key was present with an explicit null.
func (f Field[T]) IsNull() bool { return f.set && !f.valid }

// Get returns the value and whether it is set and non-null.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set && f.valid
}

// Ptr returns a pointer to the value, or nil for null. Only meaningful
// when IsSet is true.
func (f Field[T]) Ptr() *T {
	if !f.valid {
		return nil
	}
	v := f.value
	return &v
}
