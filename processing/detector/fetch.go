package processing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FetchModel returns a local path for source, downloading it into cacheDir on first use.
// source may be any go-getter address: an https URL, a local path, s3::, gcs:: and so on.
func FetchModel(ctx context.Context, source, cacheDir string, logger *zap.SugaredLogger) (string, error) {
	if source == "" {
		return "", errors.New("model source is empty")
	}
	if cacheDir == "" {
		return "", errors.New("model cache dir is empty")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create model cache dir")
	}

	dst := filepath.Join(cacheDir, cacheFileName(source))
	if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
		logger.Debugw("model found in cache", "source", source, "path", dst)
		return dst, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolve working dir")
	}

	tmp := dst + ".download"
	_ = os.Remove(tmp)
	logger.Infow("fetching model", "source", source, "dest", dst)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  source,
		Dst:  tmp,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrapf(err, "fetch model %s", source)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", errors.Wrap(err, "move model into cache")
	}
	return dst, nil
}

// cacheFileName keys the cache by source so two sources never share a file.
func cacheFileName(source string) string {
	h := sha1.Sum([]byte(source))
	base := path.Base(strings.SplitN(source, "?", 2)[0])
	if base == "." || base == "/" || base == "" {
		base = "model.onnx"
	}
	return hex.EncodeToString(h[:8]) + "-" + base
}
