// Command pixelart converts an input image to a pixel-art rendering
// using either a uniform grid or an adaptive quadtree partition.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/naporin0624/pixelart"
	"github.com/naporin0624/pixelart/utils"
)

const (
	exitOK              = 0
	exitArgumentError   = 1
	exitIOError         = 2
	exitProcessingError = 3
)

type options struct {
	Input             string  `short:"i" long:"input" description:"input image path" required:"true"`
	Output            string  `short:"o" long:"output" description:"output image path" required:"true"`
	Cols              uint32  `short:"w" long:"cols" description:"grid columns"`
	Rows              uint32  `short:"h" long:"rows" description:"grid rows"`
	Algorithm         string  `short:"a" long:"algorithm" description:"average, median-cut, or kmeans" default:"average"`
	PaletteSize       uint32  `short:"c" long:"palette-size" description:"palette size for median-cut/kmeans" default:"16"`
	Adaptive          bool    `long:"adaptive" description:"use the quadtree strategy instead of a grid"`
	MaxDepth          uint32  `long:"max-depth" description:"quadtree max depth" default:"10"`
	VarianceThreshold float64 `long:"variance-threshold" description:"quadtree split threshold" default:"50.0"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var opts options
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	if _, err := parser.ParseArgs(argv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitArgumentError
	}

	if err := validateOptions(&opts, parser); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitArgumentError
	}

	extractor, err := buildExtractor(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitArgumentError
	}

	decoded, err := utils.ReadImage(opts.Input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}

	if opts.Algorithm == "median-cut" || opts.Algorithm == "kmeans" {
		preview := utils.PreviewPalette(decoded, int(opts.PaletteSize))
		log.Printf("pixelart: suggested preview palette (%d colors, darkest first): %v", len(preview), preview)
	}

	converter := buildConverter(&opts, extractor)
	input := utils.ToPixelartImage(decoded)

	out, stats, err := pixelart.ConvertWithStats(converter, input, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, classifyProcessingError(err))
		return exitProcessingError
	}
	log.Printf("pixelart: converted %d cells in %s", stats.CellsProcessed, stats.Duration)

	if err := utils.SaveImage(utils.FromPixelartImage(out), opts.Output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}
	return exitOK
}

// validateOptions enforces spec.md §6: -w/-h and --adaptive are mutually
// exclusive, and the palette size must be >= 2 when the extractor needs
// one.
func validateOptions(opts *options, parser *flags.Parser) error {
	colsSet := isSet(parser, "cols")
	rowsSet := isSet(parser, "rows")

	if opts.Adaptive && (colsSet || rowsSet) {
		return errors.New("pixelart: --adaptive cannot be combined with -w/-h")
	}
	if !opts.Adaptive && (!colsSet || !rowsSet) {
		return errors.New("pixelart: -w and -h are required unless --adaptive is given")
	}

	if opts.Algorithm == "median-cut" || opts.Algorithm == "kmeans" {
		if opts.PaletteSize < 2 {
			return errors.New("pixelart: -c must be >= 2 for median-cut/kmeans")
		}
	} else if opts.Algorithm != "average" {
		return fmt.Errorf("pixelart: unknown algorithm %q", opts.Algorithm)
	}
	return nil
}

func isSet(parser *flags.Parser, longName string) bool {
	opt := parser.FindOptionByLongName(longName)
	return opt != nil && opt.IsSet()
}

func buildExtractor(opts *options) (pixelart.ColorExtractor, error) {
	switch opts.Algorithm {
	case "median-cut":
		return &pixelart.MedianCutExtractor{TargetColors: opts.PaletteSize}, nil
	case "kmeans":
		return &pixelart.KMeansExtractor{K: opts.PaletteSize, MaxIterations: 100}, nil
	default:
		return &pixelart.AverageExtractor{}, nil
	}
}

func buildConverter(opts *options, extractor pixelart.ColorExtractor) *pixelart.Converter {
	if opts.Adaptive {
		return pixelart.NewQuadTreeConverter(opts.MaxDepth, opts.VarianceThreshold, extractor)
	}
	return pixelart.NewGridConverter(opts.Cols, opts.Rows, extractor)
}

// classifyProcessingError adds a stable prefix per error kind, matching
// the exit-code mapping in spec.md §7 (this is diagnostic text only; the
// exit code itself is fixed at exitProcessingError for any conversion
// failure reaching this point).
func classifyProcessingError(err error) error {
	var dim *pixelart.InvalidDimensionsError
	var param *pixelart.InvalidParameterError
	var empty *pixelart.EmptyInputError
	var oom *pixelart.OutOfMemoryError
	switch {
	case errors.As(err, &dim):
		return fmt.Errorf("pixelart: dimension error: %w", err)
	case errors.As(err, &param):
		return fmt.Errorf("pixelart: parameter error: %w", err)
	case errors.As(err, &empty):
		return fmt.Errorf("pixelart: empty input: %w", err)
	case errors.As(err, &oom):
		return fmt.Errorf("pixelart: out of memory: %w", err)
	default:
		return fmt.Errorf("pixelart: processing failed: %w", err)
	}
}
