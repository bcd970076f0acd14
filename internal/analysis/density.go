package analysis

import (
	"github.com/sjinay21/CrowdShieldAI/internal/models"
	"github.com/sjinay21/CrowdShieldAI/internal/zones"
)

// DensityThresholds are the strict lower bounds for each density tier.
// A value exactly at a bound falls to the lower tier.
type DensityThresholds struct {
	Medium   float64
	High     float64
	Critical float64
}

// DensityAnalyzer turns a per-frame detection list into a DensityReport.
// It is a pure function of its inputs and holds no cross-frame state.
type DensityAnalyzer struct {
	zones       *zones.Configuration
	areaDivisor float64
	thresholds  DensityThresholds
}

// NewDensityAnalyzer creates an analyzer for the given zone layout. The area
// divisor is a dimensionless normalization constant (frame pixels per density
// unit), not a real-world calibration.
func NewDensityAnalyzer(zc *zones.Configuration, areaDivisor float64, thresholds DensityThresholds) *DensityAnalyzer {
	return &DensityAnalyzer{
		zones:       zc,
		areaDivisor: areaDivisor,
		thresholds:  thresholds,
	}
}

// Analyze computes total and per-zone counts plus the classified density
// level for one frame. A detection is counted in every zone that contains its
// center, and in none when it lies outside all zones. Degenerate frame
// dimensions yield zero density rather than an error.
func (a *DensityAnalyzer) Analyze(detections []models.Detection, frameWidth, frameHeight int) models.DensityReport {
	layout := a.zones.Zones()
	zoneCounts := make(map[string]int, len(layout))
	for name, zone := range layout {
		count := 0
		for _, det := range detections {
			cx, cy := det.Center()
			if zone.Contains(cx, cy) {
				count++
			}
		}
		zoneCounts[name] = count
	}

	totalCount := len(detections)

	areaUnits := float64(frameWidth*frameHeight) / a.areaDivisor
	density := 0.0
	if areaUnits > 0 {
		density = float64(totalCount) / areaUnits
	}

	return models.DensityReport{
		TotalCount:    totalCount,
		DensityPerSqm: density,
		DensityLevel:  a.classify(density),
		ZoneCounts:    zoneCounts,
		FrameDimensions: models.FrameDimensions{
			Width:  frameWidth,
			Height: frameHeight,
		},
	}
}

func (a *DensityAnalyzer) classify(density float64) models.DensityLevel {
	switch {
	case density > a.thresholds.Critical:
		return models.DensityLevelCritical
	case density > a.thresholds.High:
		return models.DensityLevelHigh
	case density > a.thresholds.Medium:
		return models.DensityLevelMedium
	default:
		return models.DensityLevelLow
	}
}
