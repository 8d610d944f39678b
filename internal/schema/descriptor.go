package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Kind is the JSON type of a described value.
type Kind string

// Supported kinds. The values double as JSON-Schema type names.
const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Descriptor is the introspectable shape of a value. Model back-ends read it
// to learn what output shape is required.
type Descriptor struct {
	// Title names the record type. Only set on root descriptors.
	Title string

	Kind        Kind
	Description string

	// Fields lists the properties of an object in declaration order.
	Fields []Field

	// Items describes the elements of an array.
	Items *Descriptor
}

// Field is a named property of an object descriptor.
type Field struct {
	Name     string
	Required bool
	Schema   *Descriptor
}

// Field returns the property with the given name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Lookup resolves a path of property names through nested objects.
func (d *Descriptor) Lookup(path ...string) (*Descriptor, bool) {
	cur := d
	for _, name := range path {
		if cur.Kind != KindObject {
			return nil, false
		}
		f, ok := cur.Field(name)
		if !ok {
			return nil, false
		}
		cur = f.Schema
	}
	return cur, true
}

// JSONSchema renders the descriptor as a JSON-Schema document.
func (d *Descriptor) JSONSchema() map[string]any {
	out := map[string]any{"type": string(d.Kind)}
	if d.Title != "" {
		out["title"] = d.Title
	}
	if d.Description != "" {
		out["description"] = d.Description
	}
	switch d.Kind {
	case KindObject:
		props := make(map[string]any, len(d.Fields))
		required := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			props[f.Name] = f.Schema.JSONSchema()
			if f.Required {
				required = append(required, f.Name)
			}
		}
		out["properties"] = props
		out["required"] = required
		out["additionalProperties"] = false
	case KindArray:
		out["items"] = d.Items.JSONSchema()
	}
	return out
}

// describe builds a descriptor from a Go type.
func describe(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Descriptor{Kind: KindString}, nil
	case reflect.Bool:
		return &Descriptor{Kind: KindBoolean}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Descriptor{Kind: KindInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &Descriptor{Kind: KindNumber}, nil
	case reflect.Slice, reflect.Array:
		items, err := describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: KindArray, Items: items}, nil
	case reflect.Struct:
		return describeStruct(t)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func describeStruct(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Kind: KindObject}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, optional, skip := jsonName(sf)
		if skip {
			continue
		}
		fd, err := describe(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}
		fd.Description = sf.Tag.Get("desc")
		d.Fields = append(d.Fields, Field{Name: name, Required: !optional, Schema: fd})
	}
	return d, nil
}

// jsonName mirrors encoding/json field naming.
func jsonName(sf reflect.StructField) (name string, optional, skip bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = sf.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			optional = true
		}
	}
	return name, optional, false
}

// check walks value against the descriptor and appends every structural
// failure to errs. value must already be normalized to generic JSON values.
func (d *Descriptor) check(path string, value any, errs *[]FieldError) {
	switch d.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
		}
	case KindNumber:
		if _, ok := value.(json.Number); !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
		}
	case KindInteger:
		n, ok := value.(json.Number)
		if !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
			return
		}
		if _, err := strconv.ParseInt(string(n), 10, 64); err != nil {
			*errs = append(*errs, FieldError{
				Path:    path,
				Rule:    RuleInteger,
				Message: fmt.Sprintf("expected integer, got %s", n),
			})
		}
	case KindArray:
		items, ok := value.([]any)
		if !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
			return
		}
		for i, item := range items {
			d.Items.check(fmt.Sprintf("%s[%d]", path, i), item, errs)
		}
	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			*errs = append(*errs, typeError(path, d.Kind, value))
			return
		}
		for _, f := range d.Fields {
			fieldPath := joinPath(path, f.Name)
			v, present := obj[f.Name]
			if !present || v == nil {
				if f.Required {
					*errs = append(*errs, FieldError{
						Path:    fieldPath,
						Rule:    RuleRequired,
						Message: "is required",
					})
				}
				continue
			}
			f.Schema.check(fieldPath, v, errs)
		}
	}
}

func typeError(path string, want Kind, got any) FieldError {
	return FieldError{
		Path:    path,
		Rule:    RuleType,
		Message: fmt.Sprintf("expected %s, got %s", want, jsonTypeOf(got)),
	}
}

func jsonTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
