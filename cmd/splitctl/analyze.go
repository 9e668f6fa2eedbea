package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitty/internal/config"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
)

type analyzeOptions struct {
	url          string
	token        string
	timeout      time.Duration
	maxDimension int
	fixture      string
}

func analyzeCmd() *cobra.Command {
	def := config.Default().Recognizer
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Recognize a receipt photo and print it as JSON",
		Long: `Send a receipt photo to the analysis service and print the recognized
receipt. The output can be piped into "splitctl split --format receipt -".

With --fixture the image is still validated but the receipt is read from a
recognizer output file instead of calling the service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			rec, err := opts.recognizer()
			if err != nil {
				return err
			}
			receipt, err := rec.Analyze(cmd.Context(), opts.token, image)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(receipt)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", envOr("RECOGNIZER_URL", def.BaseURL), "analysis service base URL")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("SPLITTY_TOKEN"), "bearer token forwarded to the analysis service")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", def.Timeout, "request timeout")
	cmd.Flags().IntVar(&opts.maxDimension, "max-dimension", def.MaxDimension, "downscale images larger than this many pixels")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "read the analysis result from this file instead of the service")

	return cmd
}

func (o *analyzeOptions) recognizer() (recognizer.Recognizer, error) {
	if o.fixture == "" {
		return recognizer.NewHTTPClient(o.url,
			recognizer.WithHTTPClient(&http.Client{Timeout: o.timeout}),
			recognizer.WithMaxDimension(o.maxDimension),
		), nil
	}

	data, err := os.ReadFile(o.fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	receipt, err := recognizer.DecodeReceipt(data)
	if err != nil {
		return nil, err
	}
	return &fixtureRecognizer{static: recognizer.StaticRecognizer{Receipt: *receipt}, maxDimension: o.maxDimension}, nil
}

// fixtureRecognizer checks the image like the service client would, then
// answers from a fixture.
type fixtureRecognizer struct {
	static       recognizer.StaticRecognizer
	maxDimension int
}

func (f *fixtureRecognizer) Analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error) {
	if _, err := recognizer.Preprocess(image, f.maxDimension); err != nil {
		return nil, err
	}
	if token == "" {
		token = "fixture"
	}
	return f.static.Analyze(ctx, token, image)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
