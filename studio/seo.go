package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BaSui01/podstudio/llm/gemini"
	"github.com/BaSui01/podstudio/types"
	"go.uber.org/zap"
)

// SEOParams is the input of generateSeo.
type SEOParams struct {
	ProductName       string `json:"productName"`
	DesignDescription string `json:"designDescription"`
}

// Validate implements Params.
func (p SEOParams) Validate() error {
	if err := requireText("productName", p.ProductName); err != nil {
		return err
	}
	return requireText("designDescription", p.DesignDescription)
}

// SEOContent is a marketplace listing.
type SEOContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Tags        []string `json:"tags"`
}

// SEOResult wraps the parsed listing.
type SEOResult struct {
	Content SEOContent `json:"content"`
}

// seoSchema constrains the listing. Length limits live in the field
// descriptions because the model reads them as instructions.
var seoSchema = &gemini.Schema{
	Type: gemini.TypeObject,
	Properties: map[string]*gemini.Schema{
		"title": {
			Type:        gemini.TypeString,
			Description: "An SEO-optimized product title, no more than 80 characters.",
		},
		"description": {
			Type:        gemini.TypeString,
			Description: "A persuasive, keyword-rich product description of 200 to 300 words.",
		},
		"features": {
			Type:        gemini.TypeArray,
			Description: "3 to 5 short bullet points highlighting key product features.",
			Items:       &gemini.Schema{Type: gemini.TypeString},
		},
		"tags": {
			Type:        gemini.TypeArray,
			Description: "10 to 15 relevant search tags or keywords.",
			Items:       &gemini.Schema{Type: gemini.TypeString},
		},
	},
	Required: []string{"title", "description", "features", "tags"},
}

// GenerateSEO writes a structured product listing.
func (s *Service) GenerateSEO(ctx context.Context, p SEOParams) (SEOResult, error) {
	resp, err := s.provider.GenerateContent(ctx, &gemini.GenerateContentRequest{
		Model: s.models.Text,
		Contents: []gemini.Content{{
			Role:  "user",
			Parts: []gemini.Part{gemini.TextPart(seoPrompt(p.ProductName, p.DesignDescription))},
		}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   seoSchema,
		},
	})
	if err != nil {
		return SEOResult{}, err
	}

	content, err := parseSEOContent(resp.Text())
	if err != nil {
		s.logger.Error("failed to parse SEO response",
			zap.String("raw", resp.Text()),
			zap.Error(err),
		)
		return SEOResult{}, types.NewError(types.ErrUnexpectedFormat,
			"The AI returned an unexpected format. Please try again.").
			WithCause(err).
			WithHTTPStatus(http.StatusInternalServerError)
	}
	return SEOResult{Content: content}, nil
}

// parseSEOContent accepts only a JSON object carrying every required listing
// field and nothing else, so the result is exactly what the model produced.
func parseSEOContent(text string) (SEOContent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return SEOContent{}, err
	}
	if fields == nil {
		return SEOContent{}, errors.New("listing is not a JSON object")
	}
	for _, key := range seoSchema.Required {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return SEOContent{}, fmt.Errorf("listing field %q is missing", key)
		}
	}

	var content SEOContent
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&content); err != nil {
		return SEOContent{}, err
	}
	return content, nil
}
