package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"ssdetect/internal/models"
	"ssdetect/processing/annotate"
	"ssdetect/processing/capture"
	processing "ssdetect/processing/detector"
)

func detectCmd() *cobra.Command {
	var (
		out      string
		asJSON   bool
		classes  []string
		minScore float64
	)

	cmd := &cobra.Command{
		Use:   "detect IMAGE",
		Short: "Detect objects in one image",
		Long: `Run the detector over IMAGE (jpg, jpeg or png) and print what was found.

Use --out to also write the annotated image; the format follows its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			img, _, err := capture.NewFileSource(args[0]).Open()
			if err != nil {
				return err
			}

			det, err := openDetector(cmd.Context())
			defer func() {
				err = multierr.Append(err, closeDetector(det))
			}()
			if err != nil {
				return err
			}

			res := det.Run(cmd.Context(), img)
			res.Detections = postprocessor(minScore, classes)(res.Detections)

			if out != "" {
				if err := capture.Save(annotate.Annotate(img, res.Detections), out); err != nil {
					return err
				}
				logger.Infow("annotated image written", "path", out)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeTable(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the annotated image to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringSliceVar(&classes, "class", nil, "only keep these class names")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "only keep detections with at least this confidence")

	return cmd
}

func postprocessor(minScore float64, classes []string) processing.Postprocessor {
	var pps []processing.Postprocessor
	if minScore > 0 {
		pps = append(pps, processing.NewScoreFilter(minScore))
	}
	if len(classes) > 0 {
		pps = append(pps, processing.NewClassFilter(classes...))
	}
	return processing.Chain(pps...)
}

func writeJSON(w io.Writer, res models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(res), "encode result")
}

func writeTable(w io.Writer, res models.Result) error {
	fmt.Fprintln(w, res.Message)
	if len(res.Detections) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCLASS\tCONFIDENCE\tBBOX")
	for i, d := range res.Detections {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%s\n", i+1, d.ClassName, d.Confidence, d.BBox)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nElapsed: %dms  Avg confidence: %.2f\n", res.Elapsed.Milliseconds(), res.AverageConfidence())
	for _, c := range res.ClassCounts() {
		fmt.Fprintf(w, "  %s: %d\n", c.ClassName, c.Count)
	}
	return nil
}
