package cwidget

import (
	"fmt"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Slider is a labelled float slider that snaps to Step inside [Min, Max].
type Slider struct {
	widget.BaseWidget

	labelWidget  *widget.Label
	sliderWidget *widget.Slider
	hintWidget   *widget.Label

	LabelText string
	Min       float64
	Max       float64
	Step      float64

	OnChanged func(float64)

	value float64
}

func NewThresholdSlider(label, hint string, min, max, step, value float64, onChanged func(float64)) *Slider {
	s := &Slider{
		LabelText: label,
		Min:       min,
		Max:       max,
		Step:      step,
		OnChanged: onChanged,
	}
	s.value = Snap(value, min, max, step)

	s.labelWidget = widget.NewLabel(s.format(s.value))
	s.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	s.sliderWidget = widget.NewSlider(min, max)
	s.sliderWidget.Step = step
	s.sliderWidget.Value = s.value
	s.sliderWidget.OnChanged = s.apply

	s.hintWidget = widget.NewLabel(hint)
	s.hintWidget.TextStyle = fyne.TextStyle{Italic: true}
	s.hintWidget.Wrapping = fyne.TextWrapWord
	s.hintWidget.Hidden = hint == ""

	s.ExtendBaseWidget(s)

	return s
}

func (s *Slider) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		s.labelWidget,
		s.sliderWidget,
		s.hintWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (s *Slider) Value() float64 {
	return s.value
}

func (s *Slider) SetValue(v float64) {
	v = Snap(v, s.Min, s.Max, s.Step)
	s.sliderWidget.SetValue(v)
	s.apply(v)
}

func (s *Slider) apply(v float64) {
	v = Snap(v, s.Min, s.Max, s.Step)
	if v == s.value {
		return
	}
	s.value = v
	s.labelWidget.SetText(s.format(v))

	if s.OnChanged != nil {
		s.OnChanged(v)
	}
}

func (s *Slider) format(v float64) string {
	return fmt.Sprintf("%s: %.2f", s.LabelText, v)
}

// Snap clamps v into [min, max] and rounds it to the nearest step counted from min.
func Snap(v, min, max, step float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	v = math.Max(min, math.Min(max, v))
	if step > 0 {
		v = min + math.Round((v-min)/step)*step
		v = math.Round(v*1e6) / 1e6
		v = math.Max(min, math.Min(max, v))
	}
	return v
}
