package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ssdetect/processing/capture"
)

func samplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Create the sample image folder and list its images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := cfg.GetSamplesDir()
			created, err := capture.EnsureSampleDir(dir)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s; put jpg, jpeg or png files there.\n", dir)
			}

			files, err := capture.ListSamples(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No sample images in %s\n", dir)
				return nil
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
