package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedType is returned when a schema is declared from a Go type
	// that has no JSON-schema equivalent (maps, channels, funcs, interfaces).
	ErrUnsupportedType = errors.New("unsupported schema type")
)

// Rules reported by the structural pass. Constraint failures use the
// validator tag name as their rule.
const (
	RuleRequired = "required"
	RuleType     = "type"
	RuleInteger  = "integer"
)

// FieldError describes a single offending field.
type FieldError struct {
	// Path is the dotted JSON path of the field, e.g. "targetAudience.ageRange"
	// or "keywords[1]". The empty path denotes the record itself.
	Path string `json:"path"`

	// Rule names the check that failed.
	Rule string `json:"rule"`

	// Message is a human-readable explanation.
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return path + ": " + e.Message
}

// ValidationError enumerates every field of a record that failed validation.
type ValidationError struct {
	Schema string       `json:"schema"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s for %s: %s", ErrValidation, e.Schema, strings.Join(msgs, "; "))
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Paths returns the path of every offending field in report order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}
