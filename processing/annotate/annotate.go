// Package annotate draws detections onto images.
package annotate

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"ssdetect/internal/models"
)

const (
	boxThickness = 2
	labelPadding = 10
	textInset    = 5
	fontSize     = 13
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

var textColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Annotate returns a copy of img with a box and label for every detection.
// img itself is never modified.
func Annotate(img image.Image, dets []models.Detection) *image.RGBA {
	dc := gg.NewContextForImage(img)
	out := dc.Image().(*image.RGBA)
	if len(dets) == 0 {
		return out
	}

	face := newFace()
	defer face.Close()
	dc.SetFontFace(face)

	for _, d := range dets {
		col := ColorFor(d.ClassName)
		r := image.Rect(d.BBox.X1, d.BBox.Y1, d.BBox.X2, d.BBox.Y2)
		drawRect(out, d.BBox.Y1, d.BBox.X1, d.BBox.Y2, d.BBox.X2, col)

		label := d.Label()
		bg := labelRect(dc, label, r.Min)
		dc.SetColor(col)
		dc.DrawRectangle(float64(bg.Min.X), float64(bg.Min.Y), float64(bg.Dx()), float64(bg.Dy()))
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawString(label, float64(d.BBox.X1), float64(d.BBox.Y1-textInset))
	}
	return out
}

func newFace() font.Face {
	return truetype.NewFace(labelFont, &truetype.Options{Size: fontSize, Hinting: font.HintingFull})
}

// labelRect is the filled area sitting right above the box's top-left corner. It may
// extend past the top edge; drawing there is clipped.
func labelRect(dc *gg.Context, label string, corner image.Point) image.Rectangle {
	w, h := dc.MeasureString(label)
	tw, th := int(math.Ceil(w)), int(math.Ceil(h))
	return image.Rect(corner.X, corner.Y-th-labelPadding, corner.X+tw, corner.Y)
}

// drawRect strokes the outline inward from the given edges, skipping pixels outside img.
func drawRect(img *image.RGBA, y1, x1, y2, x2 int, col color.Color) {
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, col)
		}
	}

	for t := 0; t < boxThickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(x, y1+t)
			setPixel(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			setPixel(x1+t, y)
			setPixel(x2-t, y)
		}
	}
}
