package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/basin/internal/image"
	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/segmentation"
	"github.com/jmylchreest/basin/pkg/watershed"
)

type watershedOptions struct {
	gradientFlags

	output         string
	gradientOut    string
	watershedValue uint8
	basinValue     uint8
}

func newWatershedCmd() *cobra.Command {
	defaults := segmentation.DefaultConfig()
	opts := &watershedOptions{}

	cmd := &cobra.Command{
		Use:   "watershed <image|url>",
		Short: "Write the watershed lines of an image",
		Long: `Compute the colour contrast gradient of an image and write the watershed
of it as a two-valued mask, without merging any regions.

Examples:
  # Watershed lines with the default rainfall method
  basin watershed -o lines.png photo.jpg

  # Immersion flooding, black lines on white, keep the gradient too
  basin watershed --method immersion --line-value 0 --basin-value 255 \
    --gradient-out gradient.png -o lines.png photo.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatershed(cmd, args, opts)
		},
	}

	opts.register(cmd, defaults)
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "write the watershed mask as a PNG (required)")
	f.StringVar(&opts.gradientOut, "gradient-out", "", "write the quantised gradient as a PNG")
	f.Uint8Var(&opts.watershedValue, "line-value", defaults.Watershed.WatershedValue, "mask value of watershed pixels")
	f.Uint8Var(&opts.basinValue, "basin-value", defaults.Watershed.BasinValue, "mask value of basin pixels")
	return cmd
}

// runWatershed executes the watershed command.
func runWatershed(cmd *cobra.Command, args []string, opts *watershedOptions) error {
	if opts.output == "" {
		return errors.New("--output is required")
	}
	logger := newLogger(cmd)

	cfg := segmentation.DefaultConfig()
	opts.apply(&cfg)
	cfg.Watershed.WatershedValue = opts.watershedValue
	cfg.Watershed.BasinValue = opts.basinValue
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	splitter, err := imgproc.NewSplitter(cfg.ColorSpace)
	if err != nil {
		return err
	}

	img, err := loadImage(cmd.Context(), logger, args[0], &opts.gradientFlags)
	if err != nil {
		return err
	}

	prepared := imgproc.Denoise(imgproc.Fit(img, cfg.MaxSize), cfg.DenoiseFilter, cfg.DenoiseKernel)
	c1, c2, c3 := splitter.Split(prepared)
	mag, _, maxMag, err := imgproc.ColorContrastGradient(cfg.Gradient, c1, c2, c3)
	if err != nil {
		return fmt.Errorf("failed to compute gradient: %w", err)
	}
	elev := imgproc.Quantize(mag, maxMag)

	if cfg.Watershed.Threshold == segmentation.AutoThreshold {
		cfg.Watershed.Threshold = segmentation.EstimateThreshold(elev, cfg.ThresholdProbability)
	}
	logger.Debug("watershed threshold", "threshold", cfg.Watershed.Threshold)

	ws, err := watershed.New(cfg.Watershed, watershed.WithLogger(logger.Named("watershed")))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	lines, err := ws.Lines(elev)
	if err != nil {
		return fmt.Errorf("failed to run watershed: %w", err)
	}

	if opts.gradientOut != "" {
		if err := image.SavePNG(opts.gradientOut, image.ChannelToGray(elev)); err != nil {
			return err
		}
		logger.Info("wrote gradient", "path", opts.gradientOut)
	}
	if err := image.SavePNG(opts.output, image.ChannelToGray(lines)); err != nil {
		return err
	}
	logger.Info("wrote watershed", "path", opts.output, "method", cfg.Watershed.Method, "threshold", cfg.Watershed.Threshold)
	return nil
}
