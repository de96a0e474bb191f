// Package wizard holds the setup wizard's form state: validated fields, the
// SSH authentication-method choice, and the submission payload.
package wizard

import "github.com/acolita/ddns-setup/internal/validate"

// Field pairs a value with the predicate that decides whether it is
// acceptable. Validity is recomputed on every call.
type Field[T comparable] struct {
	value     T
	validator validate.Validator[T]
}

// NewField returns a field holding value, checked by fn.
func NewField[T comparable](value T, fn validate.Validator[T]) Field[T] {
	return Field[T]{value: value, validator: fn}
}

// Value returns the current value.
func (f Field[T]) Value() T {
	return f.value
}

// Set replaces the current value.
func (f *Field[T]) Set(v T) {
	f.value = v
}

// Valid reports whether the current value is acceptable. The zero value of T
// (empty string, port 0) is never valid, whatever the predicate says.
func (f Field[T]) Valid() bool {
	var zero T
	if f.value == zero {
		return false
	}
	if f.validator == nil {
		return true
	}
	return f.validator(f.value)
}
