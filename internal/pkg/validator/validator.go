package validator

// Validator validates structs annotated with `validate` tags.
type Validator interface {
	// Validate returns nil when data passes, or an error describing the
	// failed fields.
	Validate(data any) error
}
