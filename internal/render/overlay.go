package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

var (
	detectionColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	zoneColor      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	statsColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws the detection boxes, zone rectangles and the stats panel
// onto the frame, mirroring what the backend receives in the envelope.
func Annotate(mat *gocv.Mat, detections []models.Detection, zones map[string]models.Zone, report models.DensityReport) {
	if mat == nil || mat.Empty() {
		return
	}

	DrawDetections(mat, detections)
	DrawZones(mat, zones)
	DrawStats(mat, report)
}

// DrawDetections draws each person box with its confidence.
func DrawDetections(mat *gocv.Mat, detections []models.Detection) {
	for _, det := range detections {
		x, y := int(det.BBox.X), int(det.BBox.Y)
		w, h := int(det.BBox.Width), int(det.BBox.Height)

		gocv.Rectangle(mat, image.Rect(x, y, x+w, y+h), detectionColor, 2)
		gocv.PutText(mat, fmt.Sprintf("%.2f", det.Confidence),
			image.Pt(x, y-10), gocv.FontHersheySimplex, 0.5, detectionColor, 1)
	}
}

// DrawZones outlines each configured density zone with its name.
func DrawZones(mat *gocv.Mat, zones map[string]models.Zone) {
	for name, zone := range zones {
		gocv.Rectangle(mat,
			image.Rect(zone.X, zone.Y, zone.X+zone.Width, zone.Y+zone.Height),
			zoneColor, 2)
		gocv.PutText(mat, name,
			image.Pt(zone.X, zone.Y-10), gocv.FontHersheySimplex, 0.6, zoneColor, 2)
	}
}

// DrawStats renders the count/level/density summary in the top-left corner.
func DrawStats(mat *gocv.Mat, report models.DensityReport) {
	lines := []string{
		fmt.Sprintf("People Count: %d", report.TotalCount),
		fmt.Sprintf("Density: %s", report.DensityLevel),
		fmt.Sprintf("Density/sqm: %.2f", report.DensityPerSqm),
	}

	for i, text := range lines {
		gocv.PutText(mat, text, image.Pt(10, 30+i*25),
			gocv.FontHersheySimplex, 0.7, statsColor, 2)
	}
}
