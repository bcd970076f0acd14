package analysis

import (
	"fmt"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// EventThresholds are the strict count bounds for event derivation.
type EventThresholds struct {
	Overcrowding     int // total count above which overcrowding fires
	OvercrowdingHigh int // total count above which overcrowding is high severity
	Gathering        int // per-zone count above which gathering fires
}

// EventClassifier derives discrete crowd events from a density report. The
// rules are evaluated independently, so both events may fire in the same
// cycle. There is no hysteresis: a value oscillating around a threshold
// re-emits its event every qualifying cycle, and de-duplication is left to
// downstream consumers.
type EventClassifier struct {
	thresholds EventThresholds
}

// NewEventClassifier creates a classifier with the given thresholds.
func NewEventClassifier(thresholds EventThresholds) *EventClassifier {
	return &EventClassifier{thresholds: thresholds}
}

// Classify returns zero or more events for the report, in a stable order:
// overcrowding first, then gathering.
func (c *EventClassifier) Classify(report models.DensityReport) []models.Event {
	var events []models.Event

	if report.TotalCount > c.thresholds.Overcrowding {
		severity := models.EventSeverityMedium
		if report.TotalCount > c.thresholds.OvercrowdingHigh {
			severity = models.EventSeverityHigh
		}
		events = append(events, models.Event{
			Action:       models.EventOvercrowding,
			Severity:     severity,
			Description:  fmt.Sprintf("High crowd density detected: %d people", report.TotalCount),
			CrowdCount:   report.TotalCount,
			DensityLevel: report.DensityLevel,
		})
	}

	// The gathering event deliberately does not name the triggering zone;
	// zone identity stays in the report.
	if report.MaxZoneCount() > c.thresholds.Gathering {
		events = append(events, models.Event{
			Action:       models.EventCrowdGathering,
			Severity:     models.EventSeverityMedium,
			Description:  "Crowd gathering detected in zone",
			CrowdCount:   report.TotalCount,
			DensityLevel: report.DensityLevel,
		})
	}

	return events
}
