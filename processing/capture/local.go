package capture

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// FileSource reads an image from disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (fs *FileSource) Name() string {
	return filepath.Base(fs.path)
}

func (fs *FileSource) Path() string {
	return fs.path
}

func (fs *FileSource) Open() (image.Image, Info, error) {
	if !IsSupported(fs.path) {
		return nil, Info{}, errors.Errorf("unsupported image type: %s", filepath.Ext(fs.path))
	}
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, Info{}, errors.Wrap(err, "read image")
	}
	return decode(data)
}

// UploadSource holds an image received as bytes, from a file dialog or an HTTP upload.
type UploadSource struct {
	name string
	data []byte
}

func NewUploadSource(name string, data []byte) *UploadSource {
	return &UploadSource{name: name, data: data}
}

func (us *UploadSource) Name() string {
	return us.name
}

func (us *UploadSource) Open() (image.Image, Info, error) {
	if len(us.data) == 0 {
		return nil, Info{}, errors.New("no image data provided")
	}
	if us.name != "" && filepath.Ext(us.name) != "" && !IsSupported(us.name) {
		return nil, Info{}, errors.Errorf("unsupported image type: %s", filepath.Ext(us.name))
	}
	return decode(us.data)
}

// decode honours EXIF orientation so boxes line up with what the user sees.
func decode(data []byte) (image.Image, Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, errors.Wrap(err, "decode image header")
	}
	if format != "jpeg" && format != "png" {
		return nil, Info{}, errors.Errorf("unsupported image format: %s", format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, errors.Wrap(err, "decode image")
	}
	b := img.Bounds()
	info := Info{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Mode:   colorModelName(img.ColorModel()),
		SizeKB: float64(len(data)) / 1024,
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, info, errors.New("image has no pixels")
	}
	return img, info, nil
}

// Save writes img to path; the format follows the extension.
func Save(img image.Image, path string) error {
	return errors.Wrapf(imaging.Save(img, path), "save %s", path)
}

func colorModelName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA64"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "L16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	default:
		return "unknown"
	}
}
