package pipeline

import (
	"sync"
	"time"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Stats collects diagnostic counters for the loop. The loop is the single
// writer; the status API reads concurrently, hence the lock.
type Stats struct {
	mu               sync.RWMutex
	startTime        time.Time
	frames           int64
	sampled          int64
	dispatched       int64
	dispatchFailures int64
	lastEnvelope     *models.ReportEnvelope
}

// Snapshot is a point-in-time view of the loop counters.
type Snapshot struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Frames           int64   `json:"frames"`
	Sampled          int64   `json:"sampled"`
	Dispatched       int64   `json:"dispatched"`
	DispatchFailures int64   `json:"dispatch_failures"`
	FPS              float64 `json:"fps"`
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) RecordFrame() {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

func (s *Stats) RecordDispatch() {
	s.mu.Lock()
	s.dispatched++
	s.mu.Unlock()
}

func (s *Stats) RecordDispatchFailure() {
	s.mu.Lock()
	s.dispatchFailures++
	s.mu.Unlock()
}

func (s *Stats) RecordEnvelope(envelope models.ReportEnvelope) {
	s.mu.Lock()
	s.sampled++
	s.lastEnvelope = &envelope
	s.mu.Unlock()
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := time.Since(s.startTime).Seconds()
	fps := 0.0
	if uptime > 0 {
		fps = float64(s.frames) / uptime
	}

	return Snapshot{
		UptimeSeconds:    uptime,
		Frames:           s.frames,
		Sampled:          s.sampled,
		Dispatched:       s.dispatched,
		DispatchFailures: s.dispatchFailures,
		FPS:              fps,
	}
}

// LastEnvelope returns the most recently built envelope, or nil before the
// first sampled frame.
func (s *Stats) LastEnvelope() *models.ReportEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEnvelope
}
