package marketing

import (
	"embed"
	"fmt"

	"github.com/phrazzld/copycraft-api/internal/prompt"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// Prompt templates are a versioned contract with the model. Changing their
// wording changes the character of the output even when schemas are stable.
//
//go:embed prompts/*.tmpl
var promptFS embed.FS

func mustPrompt(name string, input *schema.Descriptor) *prompt.Template {
	text, err := promptFS.ReadFile("prompts/" + name + ".tmpl")
	if err != nil {
		panic(fmt.Sprintf("marketing: missing prompt template %s: %v", name, err))
	}
	return prompt.Must(prompt.New(name, string(text), input))
}
