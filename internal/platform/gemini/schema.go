package gemini

import (
	"github.com/phrazzld/copycraft-api/internal/schema"
	"google.golang.org/genai"
)

var genaiTypes = map[schema.Kind]genai.Type{
	schema.KindString:  genai.TypeString,
	schema.KindInteger: genai.TypeInteger,
	schema.KindNumber:  genai.TypeNumber,
	schema.KindBoolean: genai.TypeBoolean,
	schema.KindObject:  genai.TypeObject,
	schema.KindArray:   genai.TypeArray,
}

// responseSchema converts a descriptor into the subset of OpenAPI schema the
// Gemini API accepts for structured output. Property order follows field
// declaration order.
func responseSchema(d *schema.Descriptor) *genai.Schema {
	if d == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        genaiTypes[d.Kind],
		Title:       d.Title,
		Description: d.Description,
	}
	switch d.Kind {
	case schema.KindObject:
		s.Properties = make(map[string]*genai.Schema, len(d.Fields))
		for _, f := range d.Fields {
			s.Properties[f.Name] = responseSchema(f.Schema)
			s.PropertyOrdering = append(s.PropertyOrdering, f.Name)
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
	case schema.KindArray:
		s.Items = responseSchema(d.Items)
	}
	return s
}
