package ui

import (
	"fmt"

	"ssdetect/internal/models"
	"ssdetect/processing/capture"
)

func formatInfo(name string, info capture.Info) string {
	return fmt.Sprintf("%s\nSize: %d x %d pixels\nFormat: %s (%s)\nFile size: %.1f KB",
		name, info.Width, info.Height, info.Format, info.Mode, info.SizeKB)
}

func formatMetrics(res models.Result) (objects, elapsed, avgConf string) {
	objects = fmt.Sprintf("Objects Found: %d", len(res.Detections))
	elapsed = fmt.Sprintf("Detection Time: %.2fs", res.Elapsed.Seconds())
	if len(res.Detections) == 0 {
		return objects, elapsed, "Avg Confidence: -"
	}
	return objects, elapsed, fmt.Sprintf("Avg Confidence: %.2f", res.AverageConfidence())
}

func formatSummary(counts []models.ClassCount) []string {
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", c.ClassName, c.Count))
	}
	return lines
}

func formatDetail(i int, d models.Detection) string {
	return fmt.Sprintf("Detection %d: %s, confidence %.3f, bbox %s", i, d.ClassName, d.Confidence, d.BBox)
}
