package processing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ssdetect/internal/config"
)

func TestNewModelPicksBackend(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	tests := []struct {
		backend config.BackendType
		want    any
	}{
		{backend: config.BackendONNX, want: &ONNXModel{}},
		{backend: config.BackendRemote, want: &RemoteModel{}},
		{backend: config.BackendStatic, want: &StaticModel{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.SetBackend(tt.backend)
			m, err := NewModel(cfg, logger)
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
		})
	}

	cfg := config.NewDefaultConfig()
	cfg.SetBackend("gpu")
	_, err := NewModel(cfg, logger)
	require.Error(t, err)
}

func TestNewDetectorFromConfigStaticFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.json")
	require.NoError(t, os.WriteFile(path, []byte(tensorsReply), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.SetBackend(config.BackendStatic)
	cfg.Static.CandidatesFile = path
	cfg.SetThreshold(0.5)

	d, err := NewDetectorFromConfig(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.True(t, d.Load(context.Background()))
	assert.Equal(t, "static:"+path, d.ModelName())

	res := d.Run(context.Background(), testImage(640, 480))
	require.Len(t, res.Detections, 1)
	assert.Equal(t, "person", res.Detections[0].ClassName)
}

func TestNewDetectorFromConfigInvalid(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Model.InputSize = 0
	_, err := NewDetectorFromConfig(cfg, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
}
