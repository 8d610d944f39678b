package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every schema; validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, skip := jsonName(sf)
		if skip {
			return ""
		}
		return name
	})
	return v
}

// Schema is a declared record shape for T.
type Schema[T any] struct {
	name string
	desc *Descriptor
}

// New declares a schema for the struct type T.
func New[T any](name string) (*Schema[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	desc, err := describe(t)
	if err != nil {
		return nil, err
	}
	if desc.Kind != KindObject {
		return nil, fmt.Errorf("%w: schema root %s must be a struct", ErrUnsupportedType, t)
	}
	desc.Title = name
	return &Schema[T]{name: name, desc: desc}, nil
}

// MustNew is like New but panics on an invalid declaration.
func MustNew[T any](name string) *Schema[T] {
	s, err := New[T](name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return s
}

// Name returns the declared record name.
func (s *Schema[T]) Name() string {
	return s.name
}

// Descriptor returns the introspectable shape of T.
func (s *Schema[T]) Descriptor() *Descriptor {
	return s.desc
}

// Validate checks an untyped value against the schema and returns the typed
// record. On failure the returned error is a *ValidationError listing every
// offending field.
func (s *Schema[T]) Validate(value any) (T, error) {
	var zero T

	normalized, err := normalize(value)
	if err != nil {
		return zero, s.fail(FieldError{Rule: RuleType, Message: "value is not JSON-compatible: " + err.Error()})
	}

	var fieldErrs []FieldError
	s.desc.check("", normalized, &fieldErrs)
	if len(fieldErrs) > 0 {
		return zero, s.fail(fieldErrs...)
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return zero, s.fail(FieldError{Rule: RuleType, Message: err.Error()})
	}
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return zero, s.fail(FieldError{Rule: RuleType, Message: err.Error()})
	}

	if err := validate.Struct(&record); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return zero, s.fail(FieldError{Rule: "validator", Message: err.Error()})
		}
		for _, fe := range verrs {
			fieldErrs = append(fieldErrs, constraintError(fe))
		}
		return zero, s.fail(fieldErrs...)
	}

	return record, nil
}

func (s *Schema[T]) fail(fields ...FieldError) error {
	return &ValidationError{Schema: s.name, Fields: fields}
}

// normalize converts any JSON-compatible Go value into generic JSON values
// (map[string]any, []any, string, bool, json.Number, nil).
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func constraintError(fe validator.FieldError) FieldError {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	return FieldError{
		Path:    path,
		Rule:    fe.Tag(),
		Message: constraintMessage(fe),
	}
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
