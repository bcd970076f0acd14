package detector

import (
	"context"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Detector produces person detections for a single frame. Implementations
// must not panic on malformed frames; an error return lets the pipeline fall
// back to the simulated generator for that cycle.
type Detector interface {
	Detect(ctx context.Context, frame *models.Frame) ([]models.Detection, error)
	Name() string
}
