package studio

import (
	"context"
	"strings"

	"github.com/BaSui01/podstudio/llm/gemini"
)

// AltTextResult carries the trimmed alt text. An empty string is valid.
type AltTextResult struct {
	Text string `json:"text"`
}

// GenerateAltText describes a mockup image for screen readers.
func (s *Service) GenerateAltText(ctx context.Context, p ImageParams) (AltTextResult, error) {
	resp, err := s.provider.GenerateContent(ctx, &gemini.GenerateContentRequest{
		Model: s.models.Text,
		Contents: []gemini.Content{{
			Role: "user",
			Parts: []gemini.Part{
				gemini.InlinePart(p.MimeType, p.Data),
				gemini.TextPart(altTextInstruction),
			},
		}},
	})
	if err != nil {
		return AltTextResult{}, err
	}
	return AltTextResult{Text: strings.TrimSpace(resp.Text())}, nil
}
