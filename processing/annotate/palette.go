package annotate

import (
	"hash/fnv"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const paletteSize = 32

var palette = buildPalette(paletteSize)

// buildPalette spreads n hues around the HCL wheel with fixed chroma and lightness, so every
// entry is dark enough for white label text.
func buildPalette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		hue := float64(i) * 360 / float64(n)
		// alternate lightness so neighbouring hues still differ
		lightness := 0.55
		if i%2 == 1 {
			lightness = 0.45
		}
		r, g, b := colorful.Hcl(hue, 0.6, lightness).Clamped().RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return out
}

// ColorFor returns the box colour for a class. It depends only on the name.
func ColorFor(className string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(className))
	return palette[h.Sum32()%uint32(len(palette))]
}
