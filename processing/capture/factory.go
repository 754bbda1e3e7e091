package capture

import (
	"path/filepath"

	"github.com/pkg/errors"
)

type SourceType string

const (
	SourceUpload SourceType = "Upload"
	SourceSample SourceType = "Sample"
	SourceFile   SourceType = "File"
)

// Selection is what the user picked: an upload, a sample name or a path.
type Selection struct {
	Type SourceType
	Name string
	Data []byte
	Path string
}

// NewSource resolves a selection into something that can be opened.
func NewSource(sel Selection, samplesDir string) (Source, error) {
	switch sel.Type {
	case SourceUpload:
		return NewUploadSource(sel.Name, sel.Data), nil
	case SourceSample:
		if sel.Name == "" || sel.Name != filepath.Base(sel.Name) {
			return nil, errors.Errorf("invalid sample name: %q", sel.Name)
		}
		return NewFileSource(filepath.Join(samplesDir, sel.Name)), nil
	case SourceFile:
		return NewFileSource(sel.Path), nil
	default:
		return nil, errors.Errorf("unknown source: %s", sel.Type)
	}
}
