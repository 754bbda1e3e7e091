package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"ssdetect/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve detection over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			det, err := openDetector(cmd.Context())
			defer func() {
				err = multierr.Append(err, closeDetector(det))
			}()
			if det == nil {
				return err
			}
			if err != nil {
				// keep serving so /health can report the outage
				logger.Warnw("model not loaded", "error", err)
			}

			return server.Serve(cmd.Context(), addr, det, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}
