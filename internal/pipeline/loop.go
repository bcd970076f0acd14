package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sjinay21/CrowdShieldAI/internal/analysis"
	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/detector"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// ErrStopRequested is returned by a Presenter when the operator asks to quit
// from the display surface. The loop treats it as a clean shutdown.
var ErrStopRequested = errors.New("stop requested")

// Source yields sequential frames from a capture device.
type Source interface {
	Read() (*models.Frame, error)
	Close() error
}

// Presenter hands frames to the display/recording collaborators. Detections
// and report are nil on frames that were not sampled.
type Presenter interface {
	Present(frame *models.Frame, detections []models.Detection, report *models.DensityReport) error
	Close() error
}

// Reporter delivers a report envelope to the monitoring backend.
type Reporter interface {
	Dispatch(ctx context.Context, envelope models.ReportEnvelope) error
}

// Loop is the single-threaded coordinator: it acquires frames, runs
// detection/analysis/classification/dispatch on every Nth frame, and presents
// every frame. No component it drives keeps cross-frame state; the only state
// crossing iterations is the frame counter and the diagnostics counters.
type Loop struct {
	cfg        *config.Config
	source     Source
	presenter  Presenter
	primary    detector.Detector
	fallback   detector.Detector
	analyzer   *analysis.DensityAnalyzer
	classifier *analysis.EventClassifier
	reporter   Reporter
	publisher  models.MessagePublisher
	stats      *Stats
	interval   int64
}

// NewLoop wires the sampling loop. The fallback detector may equal the
// primary when no real model is configured; publisher may be nil.
func NewLoop(
	cfg *config.Config,
	source Source,
	presenter Presenter,
	primary, fallback detector.Detector,
	analyzer *analysis.DensityAnalyzer,
	classifier *analysis.EventClassifier,
	reporter Reporter,
	publisher models.MessagePublisher,
) *Loop {
	// A non-positive interval would mean "never sample" (or divide by
	// zero); clamp to sampling every frame.
	interval := int64(cfg.SampleInterval)
	if interval < 1 {
		interval = 1
	}

	return &Loop{
		cfg:        cfg,
		source:     source,
		presenter:  presenter,
		primary:    primary,
		fallback:   fallback,
		analyzer:   analyzer,
		classifier: classifier,
		reporter:   reporter,
		publisher:  publisher,
		stats:      NewStats(),
		interval:   interval,
	}
}

// Stats exposes the loop's diagnostic counters for the status API.
func (l *Loop) Stats() *Stats {
	return l.stats
}

// Run executes the steady-state cycle until the context is cancelled, the
// operator quits from the display, or frame acquisition fails. Acquisition
// failure is fatal for the run; every other per-cycle failure is logged and
// the loop proceeds. Capture and recording resources are released on every
// exit path. The quit signal is checked once per iteration, so an iteration
// already inside a detection or dispatch call completes first.
func (l *Loop) Run(ctx context.Context) error {
	defer l.source.Close()
	defer l.presenter.Close()

	log.Info().
		Str("camera_id", l.cfg.CameraID).
		Str("detector", l.primary.Name()).
		Int64("sample_interval", l.interval).
		Msg("Starting crowd analysis loop")

	frameCount := int64(0)
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Info().Int64("frames", frameCount).Msg("Quit signal received, stopping analysis loop")
			return nil
		default:
		}

		frame, err := l.source.Read()
		if err != nil {
			log.Error().Err(err).Int64("frames", frameCount).Msg("Frame acquisition failed, ending run")
			return fmt.Errorf("frame acquisition failed: %w", err)
		}

		frameCount++
		l.stats.RecordFrame()

		var detections []models.Detection
		var report *models.DensityReport

		if frameCount%l.interval == 0 {
			detections = l.detect(ctx, frame)

			r := l.analyzer.Analyze(detections, frame.Width, frame.Height)
			report = &r

			events := l.classifier.Classify(r)

			envelope := models.ReportEnvelope{
				Timestamp: frame.Timestamp,
				CameraID:  l.cfg.CameraID,
				Location:  l.cfg.Location,
				Analysis:  r,
				Events:    events,
			}

			if err := l.reporter.Dispatch(ctx, envelope); err != nil {
				// Non-fatal: the envelope is dropped, the cycle proceeds.
				l.stats.RecordDispatchFailure()
				log.Error().
					Err(err).
					Str("camera_id", envelope.CameraID).
					Int64("frame_id", frame.FrameID).
					Int("total_count", r.TotalCount).
					Msg("Failed to deliver envelope, dropping")
			} else {
				l.stats.RecordDispatch()
			}

			l.publishEvents(events)
			l.stats.RecordEnvelope(envelope)
		}

		if err := l.presenter.Present(frame, detections, report); err != nil {
			if errors.Is(err, ErrStopRequested) {
				log.Info().Int64("frames", frameCount).Msg("Stop requested from display, stopping analysis loop")
				return nil
			}
			log.Warn().Err(err).Int64("frame_id", frame.FrameID).Msg("Presentation failed")
		}

		if frameCount%30 == 0 {
			elapsed := time.Since(startTime).Seconds()
			if elapsed > 0 {
				log.Debug().
					Float64("fps", float64(frameCount)/elapsed).
					Int64("frames", frameCount).
					Msg("Pipeline throughput")
			}
		}
	}
}

// detect runs the primary detector and substitutes the fallback generator for
// this cycle when it errors. Detection failures are never fatal.
func (l *Loop) detect(ctx context.Context, frame *models.Frame) []models.Detection {
	detections, err := l.primary.Detect(ctx, frame)
	if err == nil {
		return detections
	}

	log.Warn().
		Err(err).
		Str("detector", l.primary.Name()).
		Int64("frame_id", frame.FrameID).
		Msg("Detection failed, substituting fallback generator")

	if l.fallback == nil || l.fallback == l.primary {
		return nil
	}

	detections, err = l.fallback.Detect(ctx, frame)
	if err != nil {
		log.Warn().Err(err).Int64("frame_id", frame.FrameID).Msg("Fallback detection failed")
		return nil
	}
	return detections
}

func (l *Loop) publishEvents(events []models.Event) {
	if l.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := l.publisher.Publish(l.cfg.EventsSubject, ev); err != nil {
			log.Warn().
				Err(err).
				Str("subject", l.cfg.EventsSubject).
				Str("action", string(ev.Action)).
				Msg("Failed to publish event")
		}
	}
}
