package models

import (
	"time"
)

// DensityLevel is the four-tier classification of computed crowd density.
type DensityLevel string

const (
	DensityLevelLow      DensityLevel = "low"
	DensityLevelMedium   DensityLevel = "medium"
	DensityLevelHigh     DensityLevel = "high"
	DensityLevelCritical DensityLevel = "critical"
)

// EventAction identifies the kind of crowd event that was detected.
type EventAction string

const (
	EventOvercrowding   EventAction = "overcrowding_detected"
	EventCrowdGathering EventAction = "crowd_gathering"
)

// EventSeverity is the severity attached to a crowd event.
type EventSeverity string

const (
	EventSeverityMedium EventSeverity = "medium"
	EventSeverityHigh   EventSeverity = "high"
)

// BoundingBox is a detection box in pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a single person detection produced by the detector for one frame.
type Detection struct {
	BBox       BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
}

// Center returns the center point of the detection box.
func (d Detection) Center() (x, y float64) {
	return d.BBox.X + d.BBox.Width/2, d.BBox.Y + d.BBox.Height/2
}

// Zone is a named rectangular sub-region of the frame used for localized
// density accounting. Zones may overlap.
type Zone struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Contains reports whether the point lies inside the zone. Bounds are
// inclusive on all four edges, so a center sitting exactly on a zone edge
// counts as inside.
func (z Zone) Contains(px, py float64) bool {
	return px >= float64(z.X) && px <= float64(z.X+z.Width) &&
		py >= float64(z.Y) && py <= float64(z.Y+z.Height)
}

// FrameDimensions carries the analyzed frame size in pixels.
type FrameDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DensityReport is the result of one analysis cycle. It is constructed fresh
// per sampled frame and never mutated. The sum of ZoneCounts is not required
// to equal TotalCount: a detection outside all zones counts toward none, a
// detection inside overlapping zones counts toward each.
type DensityReport struct {
	TotalCount      int             `json:"total_count"`
	DensityPerSqm   float64         `json:"density_per_sqm"`
	DensityLevel    DensityLevel    `json:"density_level"`
	ZoneCounts      map[string]int  `json:"zone_counts"`
	FrameDimensions FrameDimensions `json:"frame_dimensions"`
}

// MaxZoneCount returns the largest per-zone count in the report, or 0 when
// no zones are configured.
func (r DensityReport) MaxZoneCount() int {
	max := 0
	for _, c := range r.ZoneCounts {
		if c > max {
			max = c
		}
	}
	return max
}

// Event is a discrete crowd event derived from a density report.
type Event struct {
	Action       EventAction   `json:"action"`
	Severity     EventSeverity `json:"severity"`
	Description  string        `json:"description"`
	CrowdCount   int           `json:"crowd_count"`
	DensityLevel DensityLevel  `json:"density_level"`
}

// ReportEnvelope is the timestamped unit of data sent to the monitoring
// backend, one per analyzed frame. It is transmitted and discarded; there is
// no queue and no durability.
type ReportEnvelope struct {
	Timestamp time.Time     `json:"timestamp"`
	CameraID  string        `json:"camera_id"`
	Location  string        `json:"location"`
	Analysis  DensityReport `json:"analysis"`
	Events    []Event       `json:"events"`
}

// Frame is a single captured video frame handed through the pipeline as a
// raw BGR byte buffer.
type Frame struct {
	CameraID  string
	Data      []byte
	Timestamp time.Time
	FrameID   int64
	Width     int
	Height    int
	Format    string
}

// MessagePublisher publishes crowd events to a messaging subject.
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
