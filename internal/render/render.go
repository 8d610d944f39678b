// Package render formats flow results for people: Markdown for terminals and
// files, and HTML converted from that Markdown with goldmark.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/yuin/goldmark"
)

// ErrUnsupportedResult is returned for values that are not flow outputs.
var ErrUnsupportedResult = errors.New("unsupported result type")

// Markdown renders one flow output record.
func Markdown(result any) (string, error) {
	var b strings.Builder
	switch r := result.(type) {
	case marketing.AdCopyOutput:
		writeAdCopy(&b, r)
	case *marketing.AdCopyOutput:
		writeAdCopy(&b, *r)
	case marketing.SocialMediaOutput:
		writeSocialMedia(&b, r)
	case *marketing.SocialMediaOutput:
		writeSocialMedia(&b, *r)
	case marketing.SEOOutput:
		writeSEO(&b, r)
	case *marketing.SEOOutput:
		writeSEO(&b, *r)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedResult, result)
	}
	return b.String(), nil
}

// HTML renders one flow output record as an HTML fragment. Raw HTML coming
// from the model is not passed through.
func HTML(result any) (string, error) {
	md, err := Markdown(result)
	if err != nil {
		return "", err
	}
	return ToHTML(md)
}

// ToHTML converts Markdown to an HTML fragment.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

func writeAdCopy(b *strings.Builder, out marketing.AdCopyOutput) {
	b.WriteString("## Ad copy variations\n")
	if len(out.Variations) == 0 {
		b.WriteString("\n_No variations returned._\n")
		return
	}
	for i, v := range out.Variations {
		fmt.Fprintf(b, "\n### Variation %d\n\n%s\n\n*Why it works:* %s\n", i+1, v.Copy, v.Explanation)
	}
}

func writeSocialMedia(b *strings.Builder, out marketing.SocialMediaOutput) {
	fmt.Fprintf(b, "## Social media post\n\n%s\n", out.Content)
	if len(out.Hashtags) > 0 {
		fmt.Fprintf(b, "\n**Hashtags:** %s\n", strings.Join(out.Hashtags, " "))
	}
}

func writeSEO(b *strings.Builder, out marketing.SEOOutput) {
	b.WriteString("## SEO suggestions\n\n")
	fmt.Fprintf(b, "**Title:** %s\n\n", out.Metadata.Title)
	fmt.Fprintf(b, "**Description:** %s\n", out.Metadata.Description)
	if len(out.Keywords) == 0 {
		return
	}
	b.WriteString("\n**Keywords:**\n\n")
	for _, k := range out.Keywords {
		fmt.Fprintf(b, "- %s\n", k)
	}
}
