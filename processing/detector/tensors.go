package processing

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"ssdetect/internal/models"
)

// outputTensors is the SSD post-processed output: boxes are normalized top, left, bottom,
// right; classes are 1-based indices stored as floats. It is also the JSON body exchanged
// with a remote inference server and read from static candidate files.
type outputTensors struct {
	Boxes         [][4]float32 `json:"boxes"`
	Classes       []float32    `json:"classes"`
	Scores        []float32    `json:"scores"`
	NumDetections *int         `json:"num_detections,omitempty"`
}

func decodeTensors(data []byte) (outputTensors, error) {
	var t outputTensors
	if err := json.Unmarshal(data, &t); err != nil {
		return t, errors.Wrap(err, "decode detection tensors")
	}
	if len(t.Boxes) != len(t.Scores) || len(t.Classes) != len(t.Scores) {
		return t, errors.Errorf("tensor length mismatch: %d boxes, %d classes, %d scores",
			len(t.Boxes), len(t.Classes), len(t.Scores))
	}
	return t, nil
}

// flatBoxes regroups a [N*4] box tensor into rows.
func flatBoxes(flat []float32) [][4]float32 {
	out := make([][4]float32, len(flat)/4)
	for i := range out {
		copy(out[i][:], flat[4*i:4*i+4])
	}
	return out
}

func (t outputTensors) candidates() []models.RawCandidate {
	n := min(len(t.Boxes), len(t.Classes), len(t.Scores))
	if t.NumDetections != nil {
		n = min(n, max(*t.NumDetections, 0))
	}
	n = min(n, MaxCandidates)

	out := make([]models.RawCandidate, n)
	for i := 0; i < n; i++ {
		out[i] = models.RawCandidate{
			Box:        t.Boxes[i],
			ClassIndex: classIndex(t.Classes[i]),
			Score:      t.Scores[i],
		}
	}
	return out
}

// classIndex truncates a float class id; anything non-finite becomes background.
func classIndex(f float32) int {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return int(v)
}
