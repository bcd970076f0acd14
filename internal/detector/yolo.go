package detector

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

const (
	yoloInputSize    = 640
	yoloNMSThreshold = 0.45
	personClassID    = 0 // COCO class id for person
)

// YOLO runs in-process person detection with the OpenCV DNN module over a
// YOLOv8-style ONNX model. Only person-class detections are kept.
type YOLO struct {
	net          gocv.Net
	confidence   float32
	outputLayers []string
}

// NewYOLO loads the model at modelPath. The returned detector owns the
// network and must be closed when the run ends.
func NewYOLO(modelPath string, confidenceThreshold float64) (*YOLO, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", modelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Info().Str("model", modelPath).Msg("YOLO model loaded")

	return &YOLO{
		net:          net,
		confidence:   float32(confidenceThreshold),
		outputLayers: net.GetUnconnectedOutLayerNames(),
	}, nil
}

func (y *YOLO) Name() string { return "yolo" }

// Detect decodes the frame buffer, runs one forward pass and returns the
// person boxes that survive confidence filtering and NMS, in original frame
// coordinates.
func (y *YOLO) Detect(_ context.Context, frame *models.Frame) ([]models.Detection, error) {
	img, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %d: %w", frame.FrameID, err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty frame %d", frame.FrameID)
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward(y.outputLayers[0])
	defer output.Close()

	return y.decodeOutput(output, frame.Width, frame.Height)
}

// decodeOutput parses the [1 x (4+classes) x boxes] output tensor. Rows 0-3
// hold cx/cy/w/h in input-size coordinates, the remaining rows hold per-class
// scores.
func (y *YOLO) decodeOutput(output gocv.Mat, frameWidth, frameHeight int) ([]models.Detection, error) {
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] < 5 {
		return nil, fmt.Errorf("unexpected model output shape %v", sizes)
	}

	rows := sizes[1]
	boxes := sizes[2]

	data := output.Reshape(1, rows)
	defer data.Close()

	scaleX := float64(frameWidth) / yoloInputSize
	scaleY := float64(frameHeight) / yoloInputSize

	var rects []image.Rectangle
	var scores []float32

	for i := 0; i < boxes; i++ {
		score := data.GetFloatAt(4+personClassID, i)
		if score < y.confidence {
			continue
		}

		cx := float64(data.GetFloatAt(0, i)) * scaleX
		cy := float64(data.GetFloatAt(1, i)) * scaleY
		w := float64(data.GetFloatAt(2, i)) * scaleX
		h := float64(data.GetFloatAt(3, i)) * scaleY

		rects = append(rects, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2)))
		scores = append(scores, score)
	}

	if len(rects) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(rects, scores, y.confidence, yoloNMSThreshold)

	detections := make([]models.Detection, 0, len(indices))
	for _, idx := range indices {
		r := rects[idx]
		detections = append(detections, models.Detection{
			BBox: models.BoundingBox{
				X:      float64(r.Min.X),
				Y:      float64(r.Min.Y),
				Width:  float64(r.Dx()),
				Height: float64(r.Dy()),
			},
			Confidence: float64(scores[idx]),
		})
	}

	return detections, nil
}

// Close releases the DNN network.
func (y *YOLO) Close() error {
	return y.net.Close()
}
