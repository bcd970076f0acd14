package capture

import (
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Source wraps an OpenCV VideoCapture and yields sequential frames as raw
// BGR buffers at the configured resolution.
type Source struct {
	cfg     *config.Config
	cap     *gocv.VideoCapture
	img     gocv.Mat
	frameID int64
}

// NewSource opens the configured capture source. A numeric source is treated
// as a webcam index, anything else as an RTSP/file URL.
func NewSource(cfg *config.Config) (*Source, error) {
	var cap *gocv.VideoCapture
	var err error

	if deviceID, convErr := strconv.Atoi(cfg.CaptureSource); convErr == nil {
		log.Info().Int("device_id", deviceID).Msg("Opening webcam")
		cap, err = gocv.OpenVideoCapture(deviceID)
	} else {
		log.Info().Str("url", cfg.CaptureSource).Msg("Opening video stream")
		cap, err = gocv.OpenVideoCapture(cfg.CaptureSource)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open capture source %s: %w", cfg.CaptureSource, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("capture source %s is not opened", cfg.CaptureSource)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.FrameWidth))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.FrameHeight))
	cap.Set(gocv.VideoCaptureFPS, float64(cfg.TargetFPS))

	log.Info().
		Float64("actual_fps", cap.Get(gocv.VideoCaptureFPS)).
		Float64("actual_width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("actual_height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Msg("Capture source opened")

	return &Source{
		cfg: cfg,
		cap: cap,
		img: gocv.NewMat(),
	}, nil
}

// Read acquires the next frame. A failed or empty read is returned as an
// error; the sampling loop treats it as fatal for the run.
func (s *Source) Read() (*models.Frame, error) {
	if ok := s.cap.Read(&s.img); !ok {
		return nil, fmt.Errorf("failed to read frame from capture source")
	}
	if s.img.Empty() {
		return nil, fmt.Errorf("received empty frame from capture source")
	}

	s.frameID++

	frame := &models.Frame{
		CameraID:  s.cfg.CameraID,
		Timestamp: time.Now(),
		FrameID:   s.frameID,
		Width:     s.cfg.FrameWidth,
		Height:    s.cfg.FrameHeight,
		Format:    "BGR24",
	}

	if s.img.Cols() != s.cfg.FrameWidth || s.img.Rows() != s.cfg.FrameHeight {
		resized := gocv.NewMat()
		gocv.Resize(s.img, &resized, image.Pt(s.cfg.FrameWidth, s.cfg.FrameHeight), 0, 0, gocv.InterpolationLinear)
		frame.Data = resized.ToBytes()
		resized.Close()
	} else {
		frame.Data = s.img.ToBytes()
	}

	return frame, nil
}

// Close releases the capture device.
func (s *Source) Close() error {
	s.img.Close()
	if s.cap != nil {
		return s.cap.Close()
	}
	return nil
}
