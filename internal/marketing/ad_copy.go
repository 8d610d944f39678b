package marketing

import (
	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// AdCopyFlowName identifies the ad-copy variation flow.
const AdCopyFlowName = "adCopyVariations"

// TargetAudience describes who an ad is written for.
type TargetAudience struct {
	AgeRange  string `json:"ageRange"  desc:"The age range of the target audience, e.g. 25-35."`
	Gender    string `json:"gender"    desc:"The gender of the target audience, e.g. All, Male, Female."`
	Location  string `json:"location"  desc:"The location of the target audience, e.g. USA."`
	Interests string `json:"interests" desc:"The interests of the target audience, e.g. fitness, travel."`
}

// AdCopyInput is the input record of the ad-copy variation flow.
type AdCopyInput struct {
	AdCopy         string         `json:"adCopy"             desc:"The original ad copy to generate variations from."`
	TargetAudience TargetAudience `json:"targetAudience"     desc:"The target audience for the ad copy."`
	// NumberOfVariations is a hint to the model; the reply may contain a
	// different number of variations.
	NumberOfVariations int `json:"numberOfVariations" desc:"The number of ad copy variations to generate." validate:"gte=0"`
}

// AdCopyVariation is one generated ad copy and the rationale behind it.
type AdCopyVariation struct {
	Copy        string `json:"copy"        desc:"The generated ad copy variation."`
	Explanation string `json:"explanation" desc:"Why this copy works for the target audience, naming the framework applied (AIDA or PAS)."`
}

// AdCopyOutput is the output record of the ad-copy variation flow.
type AdCopyOutput struct {
	Variations []AdCopyVariation `json:"variations" desc:"The generated ad copy variations, each with an explanation."`
}

// AdCopyFlow generates persuasive variations of an ad.
type AdCopyFlow = flow.Flow[AdCopyInput, AdCopyOutput]

var (
	adCopyInputSchema  = schema.MustNew[AdCopyInput]("AdCopyInput")
	adCopyOutputSchema = schema.MustNew[AdCopyOutput]("AdCopyOutput")

	adCopyDefinition = flow.Definition[AdCopyInput, AdCopyOutput]{
		Name:   AdCopyFlowName,
		Input:  adCopyInputSchema,
		Output: adCopyOutputSchema,
		Prompt: mustPrompt("ad_copy_variations", adCopyInputSchema.Descriptor()),
	}
)

// NewAdCopyFlow binds the ad-copy variation flow to an invoker.
func NewAdCopyFlow(invoker generation.Invoker) (*AdCopyFlow, error) {
	return flow.New(adCopyDefinition, invoker)
}
