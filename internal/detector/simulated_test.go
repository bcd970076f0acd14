package detector

import (
	"context"
	"testing"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

func TestSimulatedDetectionsArePlausible(t *testing.T) {
	s := NewSimulated()
	frame := &models.Frame{Width: 1280, Height: 720}

	for i := 0; i < 50; i++ {
		detections, err := s.Detect(context.Background(), frame)
		if err != nil {
			t.Fatalf("simulated detector returned error: %v", err)
		}
		if len(detections) < 1 || len(detections) > 14 {
			t.Fatalf("detection count = %d, want 1..14", len(detections))
		}

		for _, det := range detections {
			b := det.BBox
			if b.X < 0 || b.Y < 0 || b.X+b.Width > 1280 || b.Y+b.Height > 720 {
				t.Fatalf("box outside frame: %+v", b)
			}
			if b.Width < 50 || b.Width >= 100 || b.Height < 100 || b.Height >= 150 {
				t.Fatalf("implausible box size: %+v", b)
			}
			if det.Confidence < 0.6 || det.Confidence >= 0.95 {
				t.Fatalf("confidence out of range: %v", det.Confidence)
			}
		}
	}
}

func TestSimulatedTinyFrame(t *testing.T) {
	s := NewSimulated()

	detections, err := s.Detect(context.Background(), &models.Frame{Width: 80, Height: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 0 {
		t.Fatalf("tiny frame produced %d detections, want 0", len(detections))
	}
}
