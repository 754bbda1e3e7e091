package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// RawCandidate is one region as emitted by the detector network, before filtering.
// Box is normalized and ordered top, left, bottom, right.
type RawCandidate struct {
	Box        [4]float32 `json:"box"`
	ClassIndex int        `json:"class_index"`
	Score      float32    `json:"score"`
}

// BBox is a pixel-space box. X1 <= X2 and Y1 <= Y2 are not enforced.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Dx returns the box width, zero for inverted boxes.
func (b BBox) Dx() int {
	return max(b.X2-b.X1, 0)
}

// Dy returns the box height, zero for inverted boxes.
func (b BBox) Dy() int {
	return max(b.Y2-b.Y1, 0)
}

func (b BBox) String() string {
	return fmt.Sprintf("(%d, %d) → (%d, %d)", b.X1, b.Y1, b.X2, b.Y2)
}

// MarshalJSON encodes the box as [x1, y1, x2, y2].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON accepts the [x1, y1, x2, y2] form.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "decode bbox")
	}
	*b = BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	return nil
}

// Detection is a filtered, labelled and pixel-mapped candidate.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// NewDetection validates its fields so a malformed record never leaves the mapper.
func NewDetection(className string, confidence float64, bbox BBox) (Detection, error) {
	if className == "" {
		return Detection{}, errors.New("detection class name is empty")
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Detection{}, errors.Errorf("detection confidence %v outside [0, 1]", confidence)
	}
	if bbox.X1 < 0 || bbox.Y1 < 0 || bbox.X2 < 0 || bbox.Y2 < 0 {
		return Detection{}, errors.Errorf("detection bbox %v has negative coordinates", bbox)
	}
	return Detection{ClassName: className, Confidence: confidence, BBox: bbox}, nil
}

// Label is the text drawn next to the box.
func (d Detection) Label() string {
	return fmt.Sprintf("%s: %.2f", d.ClassName, d.Confidence)
}
