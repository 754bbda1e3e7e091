package processing

import (
	"context"
	"image"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ssdetect/internal/models"
)

// MaxCandidates caps how many raw candidates one inference may return.
const MaxCandidates = 100

// ErrDisconnected is returned (possibly wrapped) by a Model whose backing session or
// connection is gone. The adapter then counts as unloaded until Load succeeds again.
var ErrDisconnected = errors.New("model disconnected")

// Model is an opaque pretrained detector. Infer receives an image already resized to the
// model input resolution and returns normalized candidates.
type Model interface {
	Name() string
	Load(ctx context.Context) error
	Infer(ctx context.Context, img image.Image) ([]models.RawCandidate, error)
	Close() error
}

// Adapter owns a Model and turns its failures into statuses instead of errors.
type Adapter struct {
	model     Model
	inputSize uint
	logger    *zap.SugaredLogger

	mu     sync.RWMutex
	loaded bool
}

func NewAdapter(model Model, inputSize int, logger *zap.SugaredLogger) *Adapter {
	if inputSize <= 0 {
		inputSize = 300
	}
	return &Adapter{
		model:     model,
		inputSize: uint(inputSize),
		logger:    logger,
	}
}

// Load acquires the model. It returns false on any failure and leaves the adapter unloaded;
// callers retry by calling Load again.
func (a *Adapter) Load(ctx context.Context) (ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorw("model load panicked", "model", a.model.Name(), "panic", r)
			a.loaded, ok = false, false
		}
	}()

	a.logger.Infow("loading model", "model", a.model.Name())
	if err := a.model.Load(ctx); err != nil {
		a.logger.Errorw("model load failed", "model", a.model.Name(), "error", err)
		a.loaded = false
		return false
	}
	a.loaded = true
	a.logger.Infow("model loaded", "model", a.model.Name())
	return true
}

func (a *Adapter) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

func (a *Adapter) ModelName() string {
	return a.model.Name()
}

// InputSize is the square side the image is stretched to before inference.
func (a *Adapter) InputSize() int {
	return int(a.inputSize)
}

// Detect runs one inference. The returned list is never nil; the status says whether an
// empty list means "nothing found" or "could not run".
func (a *Adapter) Detect(ctx context.Context, img image.Image) ([]models.RawCandidate, models.Status) {
	if !a.Loaded() {
		a.logger.Warn("model not loaded, call Load first")
		return []models.RawCandidate{}, models.StatusModelUnavailable
	}
	if img == nil || img.Bounds().Empty() {
		a.logger.Warn("detect called with an empty image")
		return []models.RawCandidate{}, models.StatusInferenceFailed
	}

	raw, err := a.infer(ctx, img)
	if errors.Is(err, ErrDisconnected) {
		a.markUnloaded()
		a.logger.Warnw("model disconnected, reload required", "model", a.model.Name(), "error", err)
		return []models.RawCandidate{}, models.StatusModelUnavailable
	}
	if err != nil {
		a.logger.Errorw("detection failed", "model", a.model.Name(), "error", err)
		return []models.RawCandidate{}, models.StatusInferenceFailed
	}
	if len(raw) > MaxCandidates {
		raw = raw[:MaxCandidates]
	}
	if raw == nil {
		raw = []models.RawCandidate{}
	}
	return raw, models.StatusOK
}

func (a *Adapter) infer(ctx context.Context, img image.Image) (raw []models.RawCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("inference panicked: %v", r)
		}
	}()

	resized := resize.Resize(a.inputSize, a.inputSize, img, resize.Bilinear)
	return a.model.Infer(ctx, resized)
}

func (a *Adapter) markUnloaded() {
	a.mu.Lock()
	a.loaded = false
	a.mu.Unlock()
}

// Close releases the model and marks the adapter unloaded.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = false
	return a.model.Close()
}
