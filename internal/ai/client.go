// Package ai talks to the generative model used for food photo analysis, meal plans and chat.
package ai

import (
	"context"
	"fmt"

	"github.com/fikafood/fika/internal/models"
)

// Client completes prompts. Every error it returns wraps models.ErrExternalService.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	// Model names the model behind text generation.
	Model() string
	// VisionModel names the model used for image prompts.
	VisionModel() string
}

func externalErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrExternalService, fmt.Sprintf(format, args...))
}
