package ui

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ssdetect/internal/config"
	"ssdetect/internal/models"
	processing "ssdetect/processing/detector"
)

func newDetector(t *testing.T, model processing.Model) *processing.Detector {
	t.Helper()
	logger := zap.NewNop().Sugar()
	return processing.NewDetector(processing.NewAdapter(model, 32, logger), nil, 0.5, logger)
}

func checksByName(checks []Check) map[string]Check {
	out := make(map[string]Check, len(checks))
	for _, c := range checks {
		out[c.Name] = c
	}
	return out
}

func TestRunDiagnosticsLoaded(t *testing.T) {
	det := newDetector(t, processing.NewStaticModel([]models.RawCandidate{
		{Box: [4]float32{0.1, 0.2, 0.5, 0.6}, ClassIndex: 1, Score: 0.9},
	}))
	require.True(t, det.Load(context.Background()))

	checks := checksByName(RunDiagnostics(context.Background(), det, config.BackendStatic, t.TempDir()))
	for _, name := range []string{"Go runtime", "Backend", "ONNX Runtime", "Model loaded", "Test inference", "Sample directory"} {
		assert.True(t, checks[name].OK, name)
	}
	assert.Equal(t, "Found 1 objects", checks["Test inference"].Detail)
}

func TestRunDiagnosticsFailures(t *testing.T) {
	det := newDetector(t, processing.NewFailingModel(errors.New("offline")))
	require.False(t, det.Load(context.Background()))

	missing := filepath.Join(t.TempDir(), "nope")
	checks := checksByName(RunDiagnostics(context.Background(), det, config.BackendStatic, missing))

	assert.False(t, checks["Model loaded"].OK)
	assert.NotContains(t, checks, "Test inference")
	assert.False(t, checks["Sample directory"].OK)
	assert.True(t, checks["Go runtime"].OK)
}
