package processing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ssdetect/internal/models"
)

func TestONNXModelInferWithoutSession(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	m := NewONNXModel("ssd.onnx", t.TempDir(), "", 1, logger)

	_, err := m.Infer(context.Background(), testImage(8, 8))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.NoError(t, m.Close())
}

func TestONNXModelClosedSessionReportsUnavailable(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	a := NewAdapter(NewONNXModel("ssd.onnx", t.TempDir(), "", 1, logger), 300, logger)
	a.loaded = true

	raw, status := a.Detect(context.Background(), testImage(8, 8))
	assert.Empty(t, raw)
	assert.Equal(t, models.StatusModelUnavailable, status)
	assert.False(t, a.Loaded())
}
