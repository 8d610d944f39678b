package marketing

import (
	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// SocialMediaFlowName identifies the social-media post flow.
const SocialMediaFlowName = "socialMediaPost"

// SocialMediaInput is the input record of the social-media post flow.
type SocialMediaInput struct {
	Copy string `json:"copy" desc:"The marketing copy to turn into a social media post."`
}

// SocialMediaOutput is the output record of the social-media post flow.
// Hashtags keep the order the model produced them in.
type SocialMediaOutput struct {
	Content  string   `json:"content"  desc:"The generated social media post content."`
	Hashtags []string `json:"hashtags" desc:"Relevant hashtags for the post."`
}

// SocialMediaFlow generates a social media post with hashtags.
type SocialMediaFlow = flow.Flow[SocialMediaInput, SocialMediaOutput]

var (
	socialMediaInputSchema = schema.MustNew[SocialMediaInput]("SocialMediaInput")

	socialMediaDefinition = flow.Definition[SocialMediaInput, SocialMediaOutput]{
		Name:   SocialMediaFlowName,
		Input:  socialMediaInputSchema,
		Output: schema.MustNew[SocialMediaOutput]("SocialMediaOutput"),
		Prompt: mustPrompt("social_media_post", socialMediaInputSchema.Descriptor()),
	}
)

// NewSocialMediaFlow binds the social-media post flow to an invoker.
func NewSocialMediaFlow(invoker generation.Invoker) (*SocialMediaFlow, error) {
	return flow.New(socialMediaDefinition, invoker)
}
