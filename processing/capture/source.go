package capture

import (
	"image"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the image types accepted for upload and sample selection.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png"}

// Info describes a decoded image for the "image information" panel.
type Info struct {
	Width  int
	Height int
	Format string
	Mode   string
	SizeKB float64
}

// Source yields one decoded image.
type Source interface {
	Name() string
	Open() (image.Image, Info, error)
}

// IsSupported reports whether name has an accepted image extension, ignoring case.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
