// Package server exposes the detection pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	processing "ssdetect/processing/detector"
)

var errThreshold = errors.New("threshold must be a number in [0, 1]")

// NewMux wires the routes and wraps them with CORS.
func NewMux(detector *processing.Detector, logger *zap.SugaredLogger) http.Handler {
	h := NewHandler(detector, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/detect", h.DetectHandler)
	mux.HandleFunc("/annotate", h.AnnotateHandler)
	mux.HandleFunc("/health", h.HealthHandler)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

// Serve runs until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, addr string, detector *processing.Detector, logger *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(detector, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infow("server starting", "addr", addr, "model", detector.ModelName())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("server stopping")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}
