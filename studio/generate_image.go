package studio

import (
	"context"
	"net/http"

	"github.com/BaSui01/podstudio/llm/gemini"
	"github.com/BaSui01/podstudio/types"
	"go.uber.org/zap"
)

// GenerateImageParams is the input of generateImage.
type GenerateImageParams struct {
	Prompt string `json:"prompt"`
	// NumberOfImages defaults to 1 when omitted.
	NumberOfImages int `json:"numberOfImages"`
}

// Validate implements Params.
func (p GenerateImageParams) Validate() error {
	if err := requireText("prompt", p.Prompt); err != nil {
		return err
	}
	if p.NumberOfImages < 0 || p.NumberOfImages > maxImagesPerCall {
		return invalidParams("numberOfImages must be between 1 and %d", maxImagesPerCall)
	}
	return nil
}

// GenerateImageResult carries base64 PNG payloads in provider order.
type GenerateImageResult struct {
	Images []string `json:"images"`
}

// GenerateImage requests square PNG images for a prompt.
func (s *Service) GenerateImage(ctx context.Context, p GenerateImageParams) (GenerateImageResult, error) {
	n := p.NumberOfImages
	if n == 0 {
		n = 1
	}

	resp, err := s.provider.GenerateImages(ctx, &gemini.GenerateImagesRequest{
		Model:          s.models.ImageGen,
		Prompt:         p.Prompt,
		NumberOfImages: n,
		AspectRatio:    "1:1",
		OutputMimeType: "image/png",
	})
	if err != nil {
		return GenerateImageResult{}, err
	}
	if resp == nil || len(resp.Images) == 0 {
		return GenerateImageResult{}, types.NewError(types.ErrNoImages,
			"Image generation failed to produce any images.").
			WithHTTPStatus(http.StatusInternalServerError)
	}

	images := make([]string, 0, len(resp.Images))
	for _, img := range resp.Images {
		images = append(images, img.Data)
	}

	s.logger.Info("images generated",
		zap.Int("requested", n),
		zap.Int("returned", len(images)),
	)
	return GenerateImageResult{Images: images}, nil
}
