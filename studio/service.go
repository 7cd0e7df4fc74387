package studio

import (
	"context"

	"github.com/BaSui01/podstudio/llm/gemini"
	"go.uber.org/zap"
)

// Provider is the subset of the Gemini client the tasks depend on.
// *gemini.Client satisfies it.
type Provider interface {
	GenerateContent(ctx context.Context, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, req *gemini.GenerateImagesRequest) (*gemini.GenerateImagesResponse, error)
}

// Models selects the provider model used by each kind of task.
type Models struct {
	Text      string // generateSeo, generateAltText
	ImageEdit string // removeBackground, applyDesign
	ImageGen  string // generateImage
}

// Service implements the five studio tasks. Each method makes exactly one
// provider call and keeps no state between calls.
type Service struct {
	provider Provider
	models   Models
	logger   *zap.Logger
}

// NewService creates a Service.
func NewService(provider Provider, models Models, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		models:   models,
		logger:   logger.With(zap.String("component", "studio")),
	}
}
