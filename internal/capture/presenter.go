package capture

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
	"github.com/sjinay21/CrowdShieldAI/internal/pipeline"
	"github.com/sjinay21/CrowdShieldAI/internal/render"
	"github.com/sjinay21/CrowdShieldAI/internal/zones"
)

const windowTitle = "Crowd Analysis"

// Presenter shows frames in an OpenCV window and optionally records them to
// an AVI file. Sampled frames get the detection/zone/stats overlay before
// display, matching what was reported to the backend.
type Presenter struct {
	cfg    *config.Config
	zc     *zones.Configuration
	window *gocv.Window
	writer *gocv.VideoWriter
}

// NewPresenter creates the display/recording sink. The window is created
// eagerly when display is enabled; the video writer lazily on first frame.
func NewPresenter(cfg *config.Config, zc *zones.Configuration) *Presenter {
	p := &Presenter{cfg: cfg, zc: zc}
	if cfg.ShowVideo {
		p.window = gocv.NewWindow(windowTitle)
	}
	return p
}

// Present annotates (when a report is available), records and displays one
// frame. Pressing q in the window requests a clean stop; s saves a
// screenshot.
func (p *Presenter) Present(frame *models.Frame, detections []models.Detection, report *models.DensityReport) error {
	if !p.cfg.ShowVideo && !p.cfg.SaveVideo {
		return nil
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("failed to decode frame %d for presentation: %w", frame.FrameID, err)
	}
	defer mat.Close()

	if report != nil {
		render.Annotate(&mat, detections, p.zc.Zones(), *report)
	}

	if p.cfg.SaveVideo {
		if err := p.record(&mat, frame); err != nil {
			log.Warn().Err(err).Int64("frame_id", frame.FrameID).Msg("Failed to record frame")
		}
	}

	if p.cfg.ShowVideo {
		p.window.IMShow(mat)

		switch p.window.WaitKey(1) {
		case 'q':
			return pipeline.ErrStopRequested
		case 's':
			screenshot := fmt.Sprintf("screenshot_%d.jpg", time.Now().Unix())
			if gocv.IMWrite(screenshot, mat) {
				log.Info().Str("file", screenshot).Msg("Screenshot saved")
			} else {
				log.Warn().Str("file", screenshot).Msg("Failed to save screenshot")
			}
		}
	}

	return nil
}

func (p *Presenter) record(mat *gocv.Mat, frame *models.Frame) error {
	if p.writer == nil {
		writer, err := gocv.VideoWriterFile(p.cfg.VideoOutputPath, "XVID",
			p.cfg.RecordFPS, frame.Width, frame.Height, true)
		if err != nil {
			return fmt.Errorf("failed to open video writer %s: %w", p.cfg.VideoOutputPath, err)
		}
		p.writer = writer
		log.Info().
			Str("file", p.cfg.VideoOutputPath).
			Float64("fps", p.cfg.RecordFPS).
			Msg("Recording started")
	}
	return p.writer.Write(*mat)
}

// Close releases the window and any open recording.
func (p *Presenter) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close video writer")
		}
		p.writer = nil
	}
	if p.window != nil {
		if err := p.window.Close(); err != nil {
			return err
		}
		p.window = nil
	}
	return nil
}
