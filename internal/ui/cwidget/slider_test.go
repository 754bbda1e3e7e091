package cwidget

import (
	"math"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestSnap(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{0.73, 0.75},
		{0.12, 0.1},
		{0.0, 0.1},
		{-3, 0.1},
		{1.7, 1.0},
		{math.NaN(), 0.1},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Snap(c.in, 0.1, 1.0, 0.05), 1e-9, "in=%v", c.in)
	}
	assert.Equal(t, 0.33, Snap(0.33, 0, 1, 0))
}

func TestThresholdSlider(t *testing.T) {
	test.NewTempApp(t)

	var got []float64
	s := NewThresholdSlider("Confidence Threshold", "", 0.1, 1.0, 0.05, 0.5, func(v float64) {
		got = append(got, v)
	})
	assert.Equal(t, 0.5, s.Value())
	assert.Equal(t, "Confidence Threshold: 0.50", s.labelWidget.Text)
	assert.True(t, s.hintWidget.Hidden)

	s.SetValue(0.73)
	assert.InDelta(t, 0.75, s.Value(), 1e-9)
	assert.Equal(t, "Confidence Threshold: 0.75", s.labelWidget.Text)

	s.SetValue(0.74)
	s.SetValue(5)
	assert.Equal(t, 1.0, s.Value())

	assert.Len(t, got, 2)
	assert.InDelta(t, 0.75, got[0], 1e-9)
	assert.Equal(t, 1.0, got[1])
}
