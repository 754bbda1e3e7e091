package models

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Status tells callers why a result is empty without resorting to errors.
type Status string

const (
	StatusOK               Status = "ok"
	StatusNoDetections     Status = "no_detections"
	StatusModelUnavailable Status = "model_unavailable"
	StatusInferenceFailed  Status = "inference_failed"
)

// Result is the outcome of one detection run over one image.
type Result struct {
	Detections  []Detection   `json:"detections"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Threshold   float64       `json:"threshold"`
	Elapsed     time.Duration `json:"-"`
	ImageWidth  int           `json:"width"`
	ImageHeight int           `json:"height"`
}

// OK reports whether the pipeline ran, regardless of whether anything was found.
func (r Result) OK() bool {
	return r.Status == StatusOK || r.Status == StatusNoDetections
}

func (r Result) AverageConfidence() float64 {
	if len(r.Detections) == 0 {
		return 0
	}
	sum := lo.SumBy(r.Detections, func(d Detection) float64 { return d.Confidence })
	return sum / float64(len(r.Detections))
}

// ClassCount is one row of the per-class summary.
type ClassCount struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// ClassCounts groups detections by class, sorted by class name.
func (r Result) ClassCounts() []ClassCount {
	counts := lo.CountValuesBy(r.Detections, func(d Detection) string { return d.ClassName })
	out := make([]ClassCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, ClassCount{ClassName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out
}
