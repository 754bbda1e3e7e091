package processing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdetect/internal/models"
)

func personCandidate(score float32) models.RawCandidate {
	return models.RawCandidate{Box: [4]float32{0.1, 0.2, 0.5, 0.6}, ClassIndex: 1, Score: score}
}

func TestFilterAndMapExample(t *testing.T) {
	out := FilterAndMap([]models.RawCandidate{personCandidate(0.91)}, 0.5, 640, 480, models.DefaultCatalog())

	require.Len(t, out, 1)
	assert.Equal(t, "person", out[0].ClassName)
	assert.Equal(t, 0.91, out[0].Confidence)
	assert.Equal(t, models.BBox{X1: 128, Y1: 48, X2: 384, Y2: 240}, out[0].BBox)
}

func TestFilterAndMapDrops(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.RawCandidate
		threshold float64
	}{
		{name: "below threshold", candidate: personCandidate(0.3), threshold: 0.5},
		{name: "equal to threshold", candidate: personCandidate(0.5), threshold: 0.5},
		{name: "equal to non-binary threshold", candidate: personCandidate(0.3), threshold: 0.3},
		{name: "background class", candidate: models.RawCandidate{Box: [4]float32{0, 0, 1, 1}, ClassIndex: 0, Score: 0.99}, threshold: 0.5},
		{name: "class past catalog", candidate: models.RawCandidate{Box: [4]float32{0, 0, 1, 1}, ClassIndex: 81, Score: 0.99}, threshold: 0.5},
		{name: "negative class", candidate: models.RawCandidate{Box: [4]float32{0, 0, 1, 1}, ClassIndex: -3, Score: 0.99}, threshold: 0.5},
		{name: "nan score", candidate: personCandidate(float32(math.NaN())), threshold: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FilterAndMap([]models.RawCandidate{tt.candidate}, tt.threshold, 640, 480, models.DefaultCatalog())
			assert.NotNil(t, out)
			assert.Empty(t, out)
		})
	}
}

func TestFilterAndMapThresholdAgreesWithConfidence(t *testing.T) {
	cat := models.DefaultCatalog()

	kept := FilterAndMap([]models.RawCandidate{personCandidate(0.3)}, 0.29999999, 640, 480, cat)
	require.Len(t, kept, 1)
	assert.Equal(t, 0.3, kept[0].Confidence)

	assert.Empty(t, FilterAndMap([]models.RawCandidate{personCandidate(0.3)}, 0.30000001, 640, 480, cat))

	for i := 1; i < 100; i++ {
		score := float32(i) / 100
		for _, delta := range []float64{-1e-8, -1e-9, 0, 1e-9, 1e-8} {
			threshold := float64(i)/100 + delta
			out := FilterAndMap([]models.RawCandidate{personCandidate(score)}, threshold, 640, 480, cat)
			for _, d := range out {
				assert.Greater(t, d.Confidence, threshold, "score=%v threshold=%v", score, threshold)
			}
			if len(out) == 0 {
				assert.LessOrEqual(t, widen(score), threshold, "score=%v threshold=%v", score, threshold)
			}
		}
	}
}

func TestFilterAndMapEmptyInput(t *testing.T) {
	out := FilterAndMap(nil, 0.5, 640, 480, models.DefaultCatalog())
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out = FilterAndMap([]models.RawCandidate{personCandidate(0.9)}, 0.5, 0, 0, models.DefaultCatalog())
	assert.Empty(t, out)
}

func TestFilterAndMapClampsEveryCoordinate(t *testing.T) {
	values := []float32{
		-10, -1, -0.0001, 0, 0.25, 0.5, 0.9999, 1, 1.0001, 2, 1e9, -1e9,
		float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN()),
	}
	dims := [][2]int{{640, 480}, {1, 1}, {3, 7}, {300, 300}}

	for _, dim := range dims {
		w, h := dim[0], dim[1]
		for _, v := range values {
			c := models.RawCandidate{Box: [4]float32{v, v, v, v}, ClassIndex: 3, Score: 0.9}
			out := FilterAndMap([]models.RawCandidate{c}, 0.5, w, h, models.DefaultCatalog())
			require.Len(t, out, 1, "v=%v dim=%v", v, dim)
			b := out[0].BBox
			for _, x := range []int{b.X1, b.X2} {
				assert.GreaterOrEqual(t, x, 0)
				assert.LessOrEqual(t, x, w-1)
			}
			for _, y := range []int{b.Y1, b.Y2} {
				assert.GreaterOrEqual(t, y, 0)
				assert.LessOrEqual(t, y, h-1)
			}
		}
	}
}

func TestFilterAndMapKeepsInvertedBoxes(t *testing.T) {
	c := models.RawCandidate{Box: [4]float32{0.5, 0.6, 0.1, 0.2}, ClassIndex: 1, Score: 0.9}
	out := FilterAndMap([]models.RawCandidate{c}, 0.5, 640, 480, models.DefaultCatalog())
	require.Len(t, out, 1)
	assert.Equal(t, models.BBox{X1: 384, Y1: 240, X2: 128, Y2: 48}, out[0].BBox)
}

func mixedCandidates() []models.RawCandidate {
	return []models.RawCandidate{
		{Box: [4]float32{0.1, 0.1, 0.4, 0.4}, ClassIndex: 1, Score: 0.95},
		{Box: [4]float32{0.2, 0.3, 0.6, 0.9}, ClassIndex: 18, Score: 0.72},
		{Box: [4]float32{0.0, 0.0, 1.0, 1.0}, ClassIndex: 0, Score: 0.99},
		{Box: [4]float32{0.3, 0.3, 0.35, 0.35}, ClassIndex: 3, Score: 0.51},
		{Box: [4]float32{-0.2, 0.5, 1.3, 1.1}, ClassIndex: 62, Score: 0.33},
		{Box: [4]float32{0.4, 0.4, 0.5, 0.5}, ClassIndex: 91, Score: 0.88},
		{Box: [4]float32{0.7, 0.1, 0.9, 0.2}, ClassIndex: 80, Score: 0.12},
	}
}

func TestFilterAndMapCardinalityAndOrder(t *testing.T) {
	raw := mixedCandidates()
	out := FilterAndMap(raw, 0.3, 800, 600, models.DefaultCatalog())

	names := make([]string, len(out))
	for i, d := range out {
		names[i] = d.ClassName
	}
	assert.Equal(t, []string{"person", "horse", "car", "toilet"}, names)
}

func TestFilterAndMapIdempotent(t *testing.T) {
	raw := mixedCandidates()
	first := FilterAndMap(raw, 0.3, 800, 600, models.DefaultCatalog())
	second := FilterAndMap(raw, 0.3, 800, 600, models.DefaultCatalog())
	assert.Equal(t, first, second)
	assert.Equal(t, mixedCandidates(), raw)
}

func TestFilterAndMapThresholdMonotonic(t *testing.T) {
	raw := mixedCandidates()
	thresholds := []float64{0, 0.1, 0.12, 0.3, 0.33, 0.5, 0.51, 0.72, 0.9, 0.95, 1}

	for i := 0; i < len(thresholds)-1; i++ {
		low := FilterAndMap(raw, thresholds[i], 800, 600, models.DefaultCatalog())
		high := FilterAndMap(raw, thresholds[i+1], 800, 600, models.DefaultCatalog())
		assert.GreaterOrEqual(t, len(low), len(high))
		for _, d := range high {
			assert.Contains(t, low, d, "t1=%v t2=%v", thresholds[i], thresholds[i+1])
		}
	}
}

func TestFilterAndMapCustomCatalog(t *testing.T) {
	catalog := models.NewClassCatalog([]string{"qr", "signature"})
	raw := []models.RawCandidate{
		{Box: [4]float32{0, 0, 0.5, 0.5}, ClassIndex: 2, Score: 0.8},
		{Box: [4]float32{0, 0, 0.5, 0.5}, ClassIndex: 3, Score: 0.8},
	}
	out := FilterAndMap(raw, 0.5, 100, 100, catalog)
	require.Len(t, out, 1)
	assert.Equal(t, "signature", out[0].ClassName)
}

func TestPostprocessors(t *testing.T) {
	dets := []models.Detection{
		{ClassName: "person", Confidence: 0.9},
		{ClassName: "dog", Confidence: 0.55},
		{ClassName: "person", Confidence: 0.4},
	}

	assert.Len(t, NewScoreFilter(0.55)(dets), 2)
	assert.Len(t, NewClassFilter("person")(dets), 2)
	assert.Len(t, NewClassFilter()(dets), 3)

	out := Chain(NewScoreFilter(0.5), nil, NewClassFilter("dog"))(dets)
	require.Len(t, out, 1)
	assert.Equal(t, "dog", out[0].ClassName)
}
