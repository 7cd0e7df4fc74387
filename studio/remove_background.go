package studio

import (
	"context"
	"fmt"

	"github.com/BaSui01/podstudio/llm/gemini"
)

// ImageParams is an inline image: its MIME type and base64 bytes.
type ImageParams struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Validate implements Params.
func (p ImageParams) Validate() error {
	if err := validateMIMEType("mimeType", p.MimeType); err != nil {
		return err
	}
	return validateBase64("data", p.Data)
}

// RemoveBackgroundResult carries the cut-out image as a data URI.
type RemoveBackgroundResult struct {
	Image string `json:"image"`
}

// RemoveBackground isolates the subject on a transparent background.
func (s *Service) RemoveBackground(ctx context.Context, p ImageParams) (RemoveBackgroundResult, error) {
	img, err := s.editImage(ctx, TaskRemoveBackground, []gemini.Part{
		gemini.InlinePart(p.MimeType, p.Data),
		gemini.TextPart(removeBackgroundInstruction),
	})
	if err != nil {
		return RemoveBackgroundResult{}, err
	}
	return RemoveBackgroundResult{Image: dataURI(img.MimeType, img.Data)}, nil
}

func dataURI(mimeType, data string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, data)
}
