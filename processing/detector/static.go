package processing

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"

	"ssdetect/internal/models"
)

// StaticModel returns the same candidates for every image. It backs offline demos and tests.
type StaticModel struct {
	path    string
	loadErr error

	mu         sync.RWMutex
	candidates []models.RawCandidate
}

// NewStaticModel serves fixed candidates.
func NewStaticModel(candidates []models.RawCandidate) *StaticModel {
	return &StaticModel{candidates: candidates}
}

// NewStaticModelFromFile reads candidates in the remote tensors JSON format on Load.
func NewStaticModelFromFile(path string) *StaticModel {
	return &StaticModel{path: path}
}

// NewFailingModel never loads; useful to exercise the unavailable path.
func NewFailingModel(err error) *StaticModel {
	return &StaticModel{loadErr: err}
}

func (m *StaticModel) Name() string {
	if m.path != "" {
		return "static:" + m.path
	}
	return "static"
}

func (m *StaticModel) Load(context.Context) error {
	if m.loadErr != nil {
		return m.loadErr
	}
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return errors.Wrap(err, "read static candidates")
	}
	t, err := decodeTensors(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.candidates = t.candidates()
	m.mu.Unlock()
	return nil
}

func (m *StaticModel) Infer(context.Context, image.Image) ([]models.RawCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RawCandidate, len(m.candidates))
	copy(out, m.candidates)
	return out, nil
}

func (m *StaticModel) Close() error {
	return nil
}
