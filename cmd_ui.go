package main

import (
	"github.com/spf13/cobra"

	"ssdetect/internal/ui"
	"ssdetect/processing/capture"
	processing "ssdetect/processing/detector"
)

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop app",
		Args:  cobra.NoArgs,
		RunE:  runUI,
	}
}

// runUI leaves model loading to the app so the window shows up straight away.
func runUI(cmd *cobra.Command, _ []string) error {
	if _, err := capture.EnsureSampleDir(cfg.GetSamplesDir()); err != nil {
		logger.Warnw("sample directory unavailable", "dir", cfg.GetSamplesDir(), "error", err)
	}

	det, err := processing.NewDetectorFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	ui.CreateApp(det, cfg, logger).Run()

	return closeDetector(det)
}
