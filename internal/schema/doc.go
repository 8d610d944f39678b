// Package schema declares the shape of the records exchanged with the
// generation flows. A Schema is built once from a tagged Go struct and is
// used both to validate untyped payloads (form input, model replies) and to
// describe the expected output shape to a language model.
//
// Struct tags drive the declaration:
//
//	json:"name,omitempty"   field name; omitempty marks the field optional
//	desc:"..."              description handed to the model
//	validate:"..."          go-playground/validator value constraints
//
// Validation happens in two passes. The structural pass walks the untyped
// value against the descriptor and reports every missing field and wrong
// primitive type with its dotted path. The constraint pass decodes into the
// typed record and runs the validator tags. Either pass failing yields a
// *ValidationError and a zero record, never a partial one.
package schema
