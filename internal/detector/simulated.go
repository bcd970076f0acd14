package detector

import (
	"context"
	"math/rand"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Simulated generates randomized but plausible person detections. It exists
// for development and testing continuity when no model is available, and for
// per-cycle recovery when the real detector errors. Deployments must treat
// its output as demo data, never as a correctness guarantee.
type Simulated struct{}

// NewSimulated creates the fallback detection generator.
func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Name() string { return "simulated" }

// Detect returns 1-14 random boxes sized like standing people, each fully
// inside the frame, with confidences in [0.6, 0.95).
func (s *Simulated) Detect(_ context.Context, frame *models.Frame) ([]models.Detection, error) {
	w, h := frame.Width, frame.Height
	if w <= 100 || h <= 150 {
		return nil, nil
	}

	numPeople := 1 + rand.Intn(14)
	detections := make([]models.Detection, 0, numPeople)

	for i := 0; i < numPeople; i++ {
		boxW := float64(50 + rand.Intn(50))
		boxH := float64(100 + rand.Intn(50))
		detections = append(detections, models.Detection{
			BBox: models.BoundingBox{
				X:      float64(rand.Intn(w - 100)),
				Y:      float64(rand.Intn(h - 150)),
				Width:  boxW,
				Height: boxH,
			},
			Confidence: 0.6 + rand.Float64()*0.35,
		})
	}

	return detections, nil
}
