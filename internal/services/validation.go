package services

// FieldErrors maps a submitted field name to its error messages, the
// shape validation failures are reported in.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// ValidationError carries field-level validation failures across the
// service boundary; handlers render it as a 422 envelope.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func newValidationError(fields FieldErrors) error {
	return &ValidationError{Fields: fields}
}
