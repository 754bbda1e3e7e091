package processing

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ssdetect/internal/config"
)

const remoteTimeout = 30 * time.Second

// NewModel picks the inference backend configured in cfg.
func NewModel(cfg *config.Config, logger *zap.SugaredLogger) (Model, error) {
	switch cfg.GetBackend() {
	case config.BackendONNX:
		return NewONNXModel(cfg.Model.URL, cfg.Model.CacheDir, cfg.Model.ORTLibrary, cfg.Model.Threads, logger), nil
	case config.BackendRemote:
		return NewRemoteModel(cfg.Remote.Host, cfg.Remote.Path, remoteTimeout, logger), nil
	case config.BackendStatic:
		if cfg.Static.CandidatesFile == "" {
			return NewStaticModel(nil), nil
		}
		return NewStaticModelFromFile(cfg.Static.CandidatesFile), nil
	default:
		return nil, errors.Errorf("unknown backend: %s", cfg.GetBackend())
	}
}

// NewDetectorFromConfig wires backend, adapter and catalog. The model is not loaded yet.
func NewDetectorFromConfig(cfg *config.Config, logger *zap.SugaredLogger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	model, err := NewModel(cfg, logger)
	if err != nil {
		return nil, err
	}
	adapter := NewAdapter(model, cfg.Model.InputSize, logger)
	return NewDetector(adapter, nil, cfg.GetThreshold(), logger), nil
}
