package marketing

import (
	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// SEOFlowName identifies the SEO suggestion flow.
const SEOFlowName = "seoSuggestions"

// SEOInput is the input record of the SEO suggestion flow.
type SEOInput struct {
	Content       string `json:"content"                 desc:"The content to optimize for search engines."`
	TargetKeyword string `json:"targetKeyword,omitempty" desc:"An optional keyword the content should rank for."`
}

// SEOMetadata is the suggested page metadata.
type SEOMetadata struct {
	Title       string `json:"title"       desc:"A short, search-optimized page title."`
	Description string `json:"description" desc:"A longer, search-optimized meta description."`
}

// SEOOutput is the output record of the SEO suggestion flow.
type SEOOutput struct {
	Keywords []string    `json:"keywords" desc:"Suggested keywords for the content."`
	Metadata SEOMetadata `json:"metadata" desc:"Suggested metadata for the content."`
}

// SEOFlow suggests keywords and metadata for a piece of content.
type SEOFlow = flow.Flow[SEOInput, SEOOutput]

var (
	seoInputSchema = schema.MustNew[SEOInput]("SEOInput")

	seoDefinition = flow.Definition[SEOInput, SEOOutput]{
		Name:   SEOFlowName,
		Input:  seoInputSchema,
		Output: schema.MustNew[SEOOutput]("SEOOutput"),
		Prompt: mustPrompt("seo_suggestions", seoInputSchema.Descriptor()),
	}
)

// NewSEOFlow binds the SEO suggestion flow to an invoker.
func NewSEOFlow(invoker generation.Invoker) (*SEOFlow, error) {
	return flow.New(seoDefinition, invoker)
}
