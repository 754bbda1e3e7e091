package capture

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const sampleReadme = `
# Sample Images

Place your test images in this folder for quick access in the app.

Supported formats: JPG, JPEG, PNG

Example images to test:
- Photos with people
- Street scenes with cars
- Indoor scenes with furniture
- Photos with animals
- Food images
`

// EnsureSampleDir creates dir with a README when it does not exist yet. An existing
// directory is left alone. It reports whether the directory was created.
func EnsureSampleDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, errors.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, errors.Wrap(err, "stat sample dir")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, errors.Wrap(err, "create sample dir")
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(sampleReadme), 0o644); err != nil {
		return true, errors.Wrap(err, "write sample readme")
	}
	return true, nil
}

// ListSamples returns the supported image file names in dir, sorted. A missing dir is empty.
func ListSamples(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read sample dir")
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && IsSupported(e.Name())
	})
	sort.Strings(files)
	return files, nil
}
