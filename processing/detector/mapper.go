package processing

import (
	"math"
	"strconv"

	"ssdetect/internal/models"
)

// FilterAndMap turns raw candidates into detections for an image of the given size.
// Candidates at or below threshold and those with an index outside the catalog are dropped.
// Output order follows the input order; no suppression or sorting happens here.
func FilterAndMap(
	raw []models.RawCandidate,
	threshold float64,
	width, height int,
	catalog *models.ClassCatalog,
) []models.Detection {
	out := make([]models.Detection, 0, len(raw))
	if width <= 0 || height <= 0 || catalog == nil {
		return out
	}

	for _, c := range raw {
		// compare the value that becomes Confidence, so every kept detection is above threshold
		conf := widen(c.Score)
		if !(conf > threshold) {
			continue
		}
		name, ok := catalog.Name(c.ClassIndex)
		if !ok {
			continue
		}

		top, left, bottom, right := c.Box[0], c.Box[1], c.Box[2], c.Box[3]
		bbox := models.BBox{
			X1: denormalize(left, width),
			Y1: denormalize(top, height),
			X2: denormalize(right, width),
			Y2: denormalize(bottom, height),
		}

		det, err := models.NewDetection(name, math.Min(conf, 1), bbox)
		if err != nil {
			continue
		}
		out = append(out, det)
	}
	return out
}

// denormalize scales v by dim, truncates and clamps into [0, dim-1].
func denormalize(v float32, dim int) int {
	limit := float64(dim - 1)
	px := float64(v) * float64(dim)
	switch {
	case math.IsNaN(px):
		return 0
	case px <= 0:
		return 0
	case px >= limit:
		return dim - 1
	}
	return int(px)
}

// widen converts a model score to float64 without exposing float32 rounding noise,
// so 0.91 stays 0.91 rather than 0.9100000262.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

// Postprocessor filters or modifies an already mapped detection list.
type Postprocessor func([]models.Detection) []models.Detection

// NewScoreFilter keeps detections with confidence at or above conf.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []models.Detection) []models.Detection {
		out := make([]models.Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewClassFilter keeps only the named classes. With no names it keeps everything.
func NewClassFilter(names ...string) Postprocessor {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return func(in []models.Detection) []models.Detection {
		if len(allowed) == 0 {
			return in
		}
		out := make([]models.Detection, 0, len(in))
		for _, d := range in {
			if _, ok := allowed[d.ClassName]; ok {
				out = append(out, d)
			}
		}
		return out
	}
}

// Chain runs postprocessors left to right, skipping nil entries.
func Chain(pps ...Postprocessor) Postprocessor {
	return func(in []models.Detection) []models.Detection {
		for _, pp := range pps {
			if pp != nil {
				in = pp(in)
			}
		}
		return in
	}
}
