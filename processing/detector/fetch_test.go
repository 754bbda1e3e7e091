package processing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFetchModelLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "ssd.onnx")
	require.NoError(t, os.WriteFile(src, []byte("onnx-bytes"), 0o644))
	cache := filepath.Join(t.TempDir(), "cache")
	logger := zaptest.NewLogger(t).Sugar()

	path, err := FetchModel(context.Background(), src, cache, logger)
	require.NoError(t, err)
	assert.Equal(t, cache, filepath.Dir(path))
	assert.Equal(t, cacheFileName(src), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "onnx-bytes", string(data))

	again, err := FetchModel(context.Background(), src, cache, logger)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestFetchModelErrors(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	_, err := FetchModel(context.Background(), "", t.TempDir(), logger)
	require.Error(t, err)

	_, err = FetchModel(context.Background(), "model.onnx", "", logger)
	require.Error(t, err)

	_, err = FetchModel(context.Background(), filepath.Join(t.TempDir(), "absent.onnx"), t.TempDir(), logger)
	require.Error(t, err)
}

func TestCacheFileName(t *testing.T) {
	a := cacheFileName("https://example.com/models/ssd.onnx?raw=true")
	b := cacheFileName("https://example.com/other/ssd.onnx")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "ssd.onnx", a[len(a)-len("ssd.onnx"):])
}
