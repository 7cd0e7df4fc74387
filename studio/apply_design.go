package studio

import (
	"context"

	"github.com/BaSui01/podstudio/llm/gemini"
)

// ApplyDesignParams is the input of applyDesign. The blank mockup is always PNG.
type ApplyDesignParams struct {
	BlankMockupBase64 string `json:"blankMockupBase64"`
	DesignMimeType    string `json:"designMimeType"`
	DesignBase64      string `json:"designBase64"`
	ProductName       string `json:"productName"`
}

// Validate implements Params.
func (p ApplyDesignParams) Validate() error {
	if err := validateBase64("blankMockupBase64", p.BlankMockupBase64); err != nil {
		return err
	}
	if err := validateMIMEType("designMimeType", p.DesignMimeType); err != nil {
		return err
	}
	if err := validateBase64("designBase64", p.DesignBase64); err != nil {
		return err
	}
	return requireText("productName", p.ProductName)
}

// ApplyDesignResult carries the composited image as bare base64. Unlike
// RemoveBackgroundResult it is not wrapped in a data URI; callers depend on
// both shapes.
type ApplyDesignResult struct {
	Image string `json:"image"`
}

// ApplyDesign composites the design onto the blank product mockup.
func (s *Service) ApplyDesign(ctx context.Context, p ApplyDesignParams) (ApplyDesignResult, error) {
	img, err := s.editImage(ctx, TaskApplyDesign, []gemini.Part{
		gemini.InlinePart("image/png", p.BlankMockupBase64),
		gemini.InlinePart(p.DesignMimeType, p.DesignBase64),
		gemini.TextPart(applyDesignInstruction(p.ProductName)),
	})
	if err != nil {
		return ApplyDesignResult{}, err
	}
	return ApplyDesignResult{Image: img.Data}, nil
}
