package analysis

import (
	"math"
	"testing"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
	"github.com/sjinay21/CrowdShieldAI/internal/zones"
)

func defaultThresholds() DensityThresholds {
	return DensityThresholds{Medium: 0.8, High: 1.5, Critical: 2.0}
}

// detectionAt returns a detection whose center is at (cx, cy).
func detectionAt(cx, cy float64) models.Detection {
	return models.Detection{
		BBox:       models.BoundingBox{X: cx - 25, Y: cy - 50, Width: 50, Height: 100},
		Confidence: 0.9,
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := NewDensityAnalyzer(zones.Default(), 10000, defaultThresholds())

	report := a.Analyze(nil, 1280, 720)

	if report.TotalCount != 0 {
		t.Fatalf("total_count = %d, want 0", report.TotalCount)
	}
	if report.DensityPerSqm != 0 {
		t.Fatalf("density = %v, want 0", report.DensityPerSqm)
	}
	if report.DensityLevel != models.DensityLevelLow {
		t.Fatalf("density_level = %q, want low", report.DensityLevel)
	}
	for name, count := range report.ZoneCounts {
		if count != 0 {
			t.Fatalf("zone %q count = %d, want 0", name, count)
		}
	}
}

func TestAnalyzeFullFrameZone(t *testing.T) {
	zc := zones.New(map[string]models.Zone{
		"frame": {X: 0, Y: 0, Width: 1280, Height: 720},
	})
	a := NewDensityAnalyzer(zc, 10000, defaultThresholds())

	detections := []models.Detection{
		detectionAt(100, 100),
		detectionAt(640, 360),
		detectionAt(1200, 700),
	}
	report := a.Analyze(detections, 1280, 720)

	if report.ZoneCounts["frame"] != report.TotalCount {
		t.Fatalf("full-frame zone count = %d, total = %d; want equal",
			report.ZoneCounts["frame"], report.TotalCount)
	}
}

func TestAnalyzeOverlappingZones(t *testing.T) {
	zc := zones.New(map[string]models.Zone{
		"a": {X: 0, Y: 0, Width: 200, Height: 200},
		"b": {X: 100, Y: 100, Width: 200, Height: 200},
	})
	a := NewDensityAnalyzer(zc, 10000, defaultThresholds())

	// One center inside both zones, one outside all zones.
	detections := []models.Detection{
		detectionAt(150, 150),
		detectionAt(900, 600),
	}
	report := a.Analyze(detections, 1280, 720)

	if report.TotalCount != 2 {
		t.Fatalf("total_count = %d, want 2", report.TotalCount)
	}
	if report.ZoneCounts["a"] != 1 || report.ZoneCounts["b"] != 1 {
		t.Fatalf("zone counts = %v, want a=1 b=1", report.ZoneCounts)
	}
}

func TestAnalyzeBoundaryCenterCounted(t *testing.T) {
	zc := zones.New(map[string]models.Zone{
		"z": {X: 0, Y: 0, Width: 200, Height: 150},
	})
	a := NewDensityAnalyzer(zc, 10000, defaultThresholds())

	// Center exactly on the right edge (x = zone.x + zone.w).
	report := a.Analyze([]models.Detection{detectionAt(200, 75)}, 1280, 720)

	if report.ZoneCounts["z"] != 1 {
		t.Fatalf("boundary center not counted: zone counts = %v", report.ZoneCounts)
	}
}

func TestClassificationThresholds(t *testing.T) {
	a := NewDensityAnalyzer(zones.Default(), 10000, defaultThresholds())

	cases := []struct {
		name          string
		count         int
		width, height int
		wantDensity   float64
		wantLevel     models.DensityLevel
	}{
		// 100x100 gives exactly 1 area unit, so density == count.
		{"zero is low", 0, 100, 100, 0, models.DensityLevelLow},
		{"exactly medium bound stays low", 8, 1000, 100, 0.8, models.DensityLevelLow},
		{"above medium bound", 1, 100, 100, 1.0, models.DensityLevelMedium},
		{"exactly high bound stays medium", 15, 1000, 100, 1.5, models.DensityLevelMedium},
		{"above high bound", 16, 1000, 100, 1.6, models.DensityLevelHigh},
		{"exactly critical bound stays high", 2, 100, 100, 2.0, models.DensityLevelHigh},
		// 99x101 = 0.9999 area units pushes 2 people just above 2.0.
		{"just above critical bound", 2, 99, 101, 2.0002, models.DensityLevelCritical},
	}

	for _, tc := range cases {
		detections := make([]models.Detection, tc.count)
		for i := range detections {
			detections[i] = detectionAt(10, 10)
		}
		report := a.Analyze(detections, tc.width, tc.height)

		if math.Abs(report.DensityPerSqm-tc.wantDensity) > 1e-3 {
			t.Errorf("%s: density = %v, want %v", tc.name, report.DensityPerSqm, tc.wantDensity)
		}
		if report.DensityLevel != tc.wantLevel {
			t.Errorf("%s: level = %q, want %q (density %v)",
				tc.name, report.DensityLevel, tc.wantLevel, report.DensityPerSqm)
		}
	}
}

func TestAnalyzeDegenerateGeometry(t *testing.T) {
	a := NewDensityAnalyzer(zones.Default(), 10000, defaultThresholds())

	report := a.Analyze([]models.Detection{detectionAt(10, 10)}, 0, 0)

	if report.DensityPerSqm != 0 {
		t.Fatalf("density for zero-area frame = %v, want 0", report.DensityPerSqm)
	}
	if report.DensityLevel != models.DensityLevelLow {
		t.Fatalf("level for zero-area frame = %q, want low", report.DensityLevel)
	}
	if report.TotalCount != 1 {
		t.Fatalf("total_count = %d, want 1", report.TotalCount)
	}
}

// A packed zone and a low frame-wide density are independent signals: 22
// people in the center of a 1280x720 frame stay "low" overall.
func TestAnalyzeCrowdedZoneLowDensity(t *testing.T) {
	a := NewDensityAnalyzer(zones.Default(), 10000, defaultThresholds())

	detections := make([]models.Detection, 22)
	for i := range detections {
		detections[i] = detectionAt(400, 300)
	}
	report := a.Analyze(detections, 1280, 720)

	if report.TotalCount != 22 {
		t.Fatalf("total_count = %d, want 22", report.TotalCount)
	}
	if math.Abs(report.DensityPerSqm-0.2387) > 1e-3 {
		t.Fatalf("density = %v, want ~0.2387", report.DensityPerSqm)
	}
	if report.DensityLevel != models.DensityLevelLow {
		t.Fatalf("level = %q, want low", report.DensityLevel)
	}
	if report.ZoneCounts["center"] != 22 {
		t.Fatalf("center zone count = %d, want 22", report.ZoneCounts["center"])
	}
}
