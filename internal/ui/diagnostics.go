package ui

import (
	"context"
	"image"
	"os"
	"runtime"

	"ssdetect/internal/config"
	"ssdetect/internal/models"
	processing "ssdetect/processing/detector"
)

// Check is one line of the System Tests tab.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// RunDiagnostics probes the pieces the app depends on. It never fails; problems are reported
// as checks that did not pass.
func RunDiagnostics(ctx context.Context, det *processing.Detector, backend config.BackendType, samplesDir string) []Check {
	checks := []Check{
		{Name: "Go runtime", OK: true, Detail: runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH},
		{Name: "Backend", OK: true, Detail: det.ModelName()},
	}

	runtimeReady := processing.RuntimeReady()
	ortCheck := Check{Name: "ONNX Runtime", OK: runtimeReady || backend != config.BackendONNX}
	switch {
	case runtimeReady:
		ortCheck.Detail = "initialised"
	case backend != config.BackendONNX:
		ortCheck.Detail = "not used by this backend"
	default:
		ortCheck.Detail = "not initialised"
	}
	checks = append(checks, ortCheck)

	loaded := det.Loaded()
	checks = append(checks, Check{Name: "Model loaded", OK: loaded, Detail: boolDetail(loaded, "ready", "unavailable")})

	if loaded {
		res := det.Run(ctx, image.NewRGBA(image.Rect(0, 0, det.InputSize(), det.InputSize())))
		ok := res.Status == models.StatusOK || res.Status == models.StatusNoDetections
		checks = append(checks, Check{Name: "Test inference", OK: ok, Detail: res.Message})
	}

	writable := dirWritable(samplesDir)
	checks = append(checks, Check{Name: "Sample directory", OK: writable, Detail: samplesDir})

	return checks
}

func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}

func boolDetail(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
