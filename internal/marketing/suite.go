package marketing

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// ErrUnknownFlow is returned by Suite.Run for an unregistered flow name.
var ErrUnknownFlow = errors.New("unknown flow")

// FlowInfo describes a flow's contract for discovery endpoints.
type FlowInfo struct {
	Name   string
	Input  *schema.Descriptor
	Output *schema.Descriptor
}

// Suite bundles the three flows behind one invoker.
type Suite struct {
	adCopy      *AdCopyFlow
	socialMedia *SocialMediaFlow
	seo         *SEOFlow
}

// NewSuite builds every flow on the same invoker.
func NewSuite(invoker generation.Invoker) (*Suite, error) {
	adCopy, err := NewAdCopyFlow(invoker)
	if err != nil {
		return nil, fmt.Errorf("failed to create ad copy flow: %w", err)
	}
	socialMedia, err := NewSocialMediaFlow(invoker)
	if err != nil {
		return nil, fmt.Errorf("failed to create social media flow: %w", err)
	}
	seo, err := NewSEOFlow(invoker)
	if err != nil {
		return nil, fmt.Errorf("failed to create SEO flow: %w", err)
	}
	return &Suite{adCopy: adCopy, socialMedia: socialMedia, seo: seo}, nil
}

// GenerateAdCopyVariations runs the ad-copy variation flow.
func (s *Suite) GenerateAdCopyVariations(ctx context.Context, payload any) (AdCopyOutput, error) {
	return s.adCopy.Run(ctx, payload)
}

// GenerateSocialMediaPost runs the social-media post flow.
func (s *Suite) GenerateSocialMediaPost(ctx context.Context, payload any) (SocialMediaOutput, error) {
	return s.socialMedia.Run(ctx, payload)
}

// SuggestSEOKeywords runs the SEO suggestion flow.
func (s *Suite) SuggestSEOKeywords(ctx context.Context, payload any) (SEOOutput, error) {
	return s.seo.Run(ctx, payload)
}

// Run dispatches to a flow by name. The result is the flow's typed output
// record (AdCopyOutput, SocialMediaOutput or SEOOutput).
func (s *Suite) Run(ctx context.Context, name string, payload any) (any, error) {
	switch name {
	case AdCopyFlowName:
		return s.GenerateAdCopyVariations(ctx, payload)
	case SocialMediaFlowName:
		return s.GenerateSocialMediaPost(ctx, payload)
	case SEOFlowName:
		return s.SuggestSEOKeywords(ctx, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, name)
	}
}

// Flows lists the contract of every flow in a stable order.
func Flows() []FlowInfo {
	return []FlowInfo{
		{Name: AdCopyFlowName, Input: adCopyDefinition.Input.Descriptor(), Output: adCopyDefinition.Output.Descriptor()},
		{Name: SocialMediaFlowName, Input: socialMediaDefinition.Input.Descriptor(), Output: socialMediaDefinition.Output.Descriptor()},
		{Name: SEOFlowName, Input: seoDefinition.Input.Descriptor(), Output: seoDefinition.Output.Descriptor()},
	}
}

// FlowByName returns the contract of one flow.
func FlowByName(name string) (FlowInfo, bool) {
	for _, info := range Flows() {
		if info.Name == name {
			return info, true
		}
	}
	return FlowInfo{}, false
}
