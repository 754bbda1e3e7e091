package processing

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"ssdetect/internal/models"
)

// Detector is the caller-owned pipeline handle: build it once, keep it for the process
// lifetime and pass it to whoever needs detections.
type Detector struct {
	adapter *Adapter
	catalog *models.ClassCatalog
	logger  *zap.SugaredLogger

	mu        sync.RWMutex
	threshold float64
}

func NewDetector(adapter *Adapter, catalog *models.ClassCatalog, threshold float64, logger *zap.SugaredLogger) *Detector {
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	return &Detector{
		adapter:   adapter,
		catalog:   catalog,
		logger:    logger,
		threshold: threshold,
	}
}

func (d *Detector) Load(ctx context.Context) bool {
	return d.adapter.Load(ctx)
}

func (d *Detector) Loaded() bool {
	return d.adapter.Loaded()
}

func (d *Detector) ModelName() string {
	return d.adapter.ModelName()
}

func (d *Detector) InputSize() int {
	return d.adapter.InputSize()
}

func (d *Detector) Catalog() *models.ClassCatalog {
	return d.catalog
}

func (d *Detector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetThreshold takes effect on the next Run; the model is not reloaded.
func (d *Detector) SetThreshold(t float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = t
}

// Run detects objects using the current threshold.
func (d *Detector) Run(ctx context.Context, img image.Image) models.Result {
	return d.RunWithThreshold(ctx, img, d.Threshold())
}

// RunWithThreshold detects objects using t without touching the shared threshold.
func (d *Detector) RunWithThreshold(ctx context.Context, img image.Image, t float64) models.Result {
	start := time.Now()
	res := models.Result{
		Detections: []models.Detection{},
		Threshold:  t,
	}
	if img != nil {
		res.ImageWidth, res.ImageHeight = img.Bounds().Dx(), img.Bounds().Dy()
	}

	raw, status := d.adapter.Detect(ctx, img)
	res.Status = status
	if status == models.StatusOK {
		res.Detections = FilterAndMap(raw, t, res.ImageWidth, res.ImageHeight, d.catalog)
		if len(res.Detections) == 0 {
			res.Status = models.StatusNoDetections
		}
	}
	res.Elapsed = time.Since(start)
	res.Message = statusMessage(res)

	d.logger.Debugw("detection finished",
		"status", res.Status,
		"candidates", len(raw),
		"detections", len(res.Detections),
		"threshold", t,
		"elapsed", res.Elapsed,
	)
	return res
}

func (d *Detector) Close() error {
	return d.adapter.Close()
}

func statusMessage(r models.Result) string {
	switch r.Status {
	case models.StatusOK:
		return fmt.Sprintf("Found %d objects", len(r.Detections))
	case models.StatusNoDetections:
		return fmt.Sprintf("No objects detected. Try lowering the confidence threshold (current: %.2f)", r.Threshold)
	case models.StatusModelUnavailable:
		return "Model is not loaded. Check your connection and reload the model."
	default:
		return "Detection failed; see logs for details."
	}
}
