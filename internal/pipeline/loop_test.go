package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sjinay21/CrowdShieldAI/internal/analysis"
	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
	"github.com/sjinay21/CrowdShieldAI/internal/zones"
)

type fakeSource struct {
	frames int
	reads  int
	closed bool
}

func (s *fakeSource) Read() (*models.Frame, error) {
	if s.reads >= s.frames {
		return nil, errors.New("capture source exhausted")
	}
	s.reads++
	return &models.Frame{
		CameraID:  "CAM001",
		Timestamp: time.Now(),
		FrameID:   int64(s.reads),
		Width:     1280,
		Height:    720,
	}, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakePresenter struct {
	calls     int
	annotated int
	stopAt    int
	closed    bool
}

func (p *fakePresenter) Present(frame *models.Frame, detections []models.Detection, report *models.DensityReport) error {
	p.calls++
	if report != nil {
		p.annotated++
	}
	if p.stopAt > 0 && p.calls >= p.stopAt {
		return ErrStopRequested
	}
	return nil
}

func (p *fakePresenter) Close() error {
	p.closed = true
	return nil
}

type fakeDetector struct {
	name       string
	detections []models.Detection
	err        error
	calls      int
}

func (d *fakeDetector) Detect(_ context.Context, _ *models.Frame) ([]models.Detection, error) {
	d.calls++
	return d.detections, d.err
}

func (d *fakeDetector) Name() string { return d.name }

type fakeReporter struct {
	envelopes []models.ReportEnvelope
	err       error
}

func (r *fakeReporter) Dispatch(_ context.Context, envelope models.ReportEnvelope) error {
	r.envelopes = append(r.envelopes, envelope)
	return r.err
}

type fakePublisher struct {
	subjects []string
	payloads []interface{}
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		CameraID:       "CAM001",
		Location:       "Main Entrance",
		SampleInterval: 3,
		EventsSubject:  "crowd.events",
	}
}

// centered returns n detections whose centers land in the default center zone.
func centered(n int) []models.Detection {
	detections := make([]models.Detection, n)
	for i := range detections {
		detections[i] = models.Detection{
			BBox:       models.BoundingBox{X: 375, Y: 275, Width: 50, Height: 50},
			Confidence: 0.8,
		}
	}
	return detections
}

func newTestLoop(cfg *config.Config, source Source, presenter Presenter, primary, fallback *fakeDetector, reporter Reporter, publisher models.MessagePublisher) *Loop {
	analyzer := analysis.NewDensityAnalyzer(zones.Default(), 10000,
		analysis.DensityThresholds{Medium: 0.8, High: 1.5, Critical: 2.0})
	classifier := analysis.NewEventClassifier(
		analysis.EventThresholds{Overcrowding: 20, OvercrowdingHigh: 30, Gathering: 8})
	return NewLoop(cfg, source, presenter, primary, fallback, analyzer, classifier, reporter, publisher)
}

func TestLoopSamplesEveryThirdFrame(t *testing.T) {
	source := &fakeSource{frames: 9}
	presenter := &fakePresenter{}
	det := &fakeDetector{name: "fake", detections: centered(2)}
	reporter := &fakeReporter{}

	loop := newTestLoop(testConfig(), source, presenter, det, det, reporter, nil)

	err := loop.Run(context.Background())
	if err == nil {
		t.Fatal("expected acquisition failure when source is exhausted")
	}

	if presenter.calls != 9 {
		t.Fatalf("presenter calls = %d, want 9 (every frame)", presenter.calls)
	}
	if det.calls != 3 {
		t.Fatalf("detector calls = %d, want 3 (frames 3, 6, 9)", det.calls)
	}
	if len(reporter.envelopes) != 3 {
		t.Fatalf("dispatched envelopes = %d, want 3", len(reporter.envelopes))
	}
	if presenter.annotated != 3 {
		t.Fatalf("annotated frames = %d, want 3", presenter.annotated)
	}

	env := reporter.envelopes[0]
	if env.CameraID != "CAM001" || env.Location != "Main Entrance" {
		t.Fatalf("envelope identity = %q/%q", env.CameraID, env.Location)
	}
	if env.Analysis.TotalCount != 2 {
		t.Fatalf("envelope total_count = %d, want 2", env.Analysis.TotalCount)
	}
	if env.Timestamp.IsZero() {
		t.Fatal("envelope timestamp is zero")
	}

	if !source.closed || !presenter.closed {
		t.Fatalf("resources not released: source=%v presenter=%v", source.closed, presenter.closed)
	}

	snap := loop.Stats().Snapshot()
	if snap.Frames != 9 || snap.Sampled != 3 || snap.Dispatched != 3 || snap.DispatchFailures != 0 {
		t.Fatalf("stats = %+v", snap)
	}
}

func TestLoopZeroSampleIntervalSamplesEveryFrame(t *testing.T) {
	cfg := testConfig()
	cfg.SampleInterval = 0

	source := &fakeSource{frames: 3}
	det := &fakeDetector{name: "fake", detections: centered(1)}
	reporter := &fakeReporter{}

	loop := newTestLoop(cfg, source, &fakePresenter{}, det, det, reporter, nil)
	loop.Run(context.Background())

	if det.calls != 3 {
		t.Fatalf("detector calls = %d, want 3 (every frame)", det.calls)
	}
	if len(reporter.envelopes) != 3 {
		t.Fatalf("dispatched envelopes = %d, want 3", len(reporter.envelopes))
	}
}

func TestLoopDispatchFailureIsNonFatal(t *testing.T) {
	source := &fakeSource{frames: 9}
	presenter := &fakePresenter{}
	det := &fakeDetector{name: "fake", detections: centered(2)}
	reporter := &fakeReporter{err: errors.New("backend unreachable")}

	loop := newTestLoop(testConfig(), source, presenter, det, det, reporter, nil)
	loop.Run(context.Background())

	// Every sampled cycle still attempted delivery and the loop kept going.
	if len(reporter.envelopes) != 3 {
		t.Fatalf("dispatch attempts = %d, want 3", len(reporter.envelopes))
	}
	if presenter.calls != 9 {
		t.Fatalf("presenter calls = %d, want 9", presenter.calls)
	}

	snap := loop.Stats().Snapshot()
	if snap.DispatchFailures != 3 || snap.Dispatched != 0 {
		t.Fatalf("stats = %+v", snap)
	}

	// Values computed before the failed dispatch are intact.
	if reporter.envelopes[2].Analysis.TotalCount != 2 {
		t.Fatalf("envelope corrupted: %+v", reporter.envelopes[2])
	}
}

func TestLoopStopRequestedFromDisplay(t *testing.T) {
	source := &fakeSource{frames: 100}
	presenter := &fakePresenter{stopAt: 5}
	det := &fakeDetector{name: "fake"}

	loop := newTestLoop(testConfig(), source, presenter, det, det, &fakeReporter{}, nil)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("stop request should end the run cleanly, got %v", err)
	}
	if presenter.calls != 5 {
		t.Fatalf("presenter calls = %d, want 5", presenter.calls)
	}
	if !source.closed || !presenter.closed {
		t.Fatal("resources not released on stop request")
	}
}

func TestLoopQuitSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{frames: 100}
	det := &fakeDetector{name: "fake"}
	loop := newTestLoop(testConfig(), source, &fakePresenter{}, det, det, &fakeReporter{}, nil)

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("cancelled run should end cleanly, got %v", err)
	}
	if source.reads != 0 {
		t.Fatalf("reads after cancellation = %d, want 0", source.reads)
	}
	if !source.closed {
		t.Fatal("source not released on quit")
	}
}

func TestLoopFallsBackWhenDetectorErrors(t *testing.T) {
	source := &fakeSource{frames: 3}
	primary := &fakeDetector{name: "yolo", err: errors.New("inference failed")}
	fallback := &fakeDetector{name: "simulated", detections: centered(4)}
	reporter := &fakeReporter{}

	loop := newTestLoop(testConfig(), source, &fakePresenter{}, primary, fallback, reporter, nil)
	loop.Run(context.Background())

	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("detector calls: primary=%d fallback=%d, want 1/1", primary.calls, fallback.calls)
	}
	if len(reporter.envelopes) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(reporter.envelopes))
	}
	if reporter.envelopes[0].Analysis.TotalCount != 4 {
		t.Fatalf("total_count = %d, want fallback's 4", reporter.envelopes[0].Analysis.TotalCount)
	}
}

func TestLoopPublishesEvents(t *testing.T) {
	source := &fakeSource{frames: 3}
	det := &fakeDetector{name: "fake", detections: centered(22)}
	reporter := &fakeReporter{}
	publisher := &fakePublisher{}

	loop := newTestLoop(testConfig(), source, &fakePresenter{}, det, det, reporter, publisher)
	loop.Run(context.Background())

	// 22 people all in one zone: overcrowding plus gathering.
	if len(reporter.envelopes) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(reporter.envelopes))
	}
	events := reporter.envelopes[0].Events
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if len(publisher.payloads) != 2 {
		t.Fatalf("published events = %d, want 2", len(publisher.payloads))
	}
	for _, subject := range publisher.subjects {
		if subject != "crowd.events" {
			t.Fatalf("published to subject %q", subject)
		}
	}
}
