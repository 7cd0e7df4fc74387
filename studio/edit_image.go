package studio

import (
	"context"
	"net/http"

	"github.com/BaSui01/podstudio/llm/gemini"
	"github.com/BaSui01/podstudio/types"
	"go.uber.org/zap"
)

// editModalities lets the model answer with an image and optional commentary.
var editModalities = []string{gemini.ModalityImage, gemini.ModalityText}

// editImage sends parts to the image-edit model and returns the first inline
// image of the first candidate.
func (s *Service) editImage(ctx context.Context, task TaskName, parts []gemini.Part) (*gemini.InlineData, error) {
	resp, err := s.provider.GenerateContent(ctx, &gemini.GenerateContentRequest{
		Model:            s.models.ImageEdit,
		Contents:         []gemini.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &gemini.GenerationConfig{ResponseModalities: editModalities},
	})
	if err != nil {
		return nil, err
	}

	respParts := resp.FirstCandidateParts()
	if len(respParts) == 0 {
		fields := []zap.Field{zap.String("task", string(task))}
		if resp != nil && resp.PromptFeedback != nil {
			fields = append(fields, zap.String("block_reason", resp.PromptFeedback.BlockReason))
		}
		s.logger.Warn("no image returned", fields...)
		return nil, types.NewError(types.ErrNoImageReturned,
			"The AI did not return an image. It may have been blocked by a safety filter.").
			WithHTTPStatus(http.StatusInternalServerError)
	}

	for _, part := range respParts {
		if part.InlineData != nil {
			return part.InlineData, nil
		}
	}

	return nil, types.NewError(types.ErrNoImageData, "No image data found in the AI response.").
		WithHTTPStatus(http.StatusInternalServerError)
}
