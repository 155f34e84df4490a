package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	chorus "github.com/tphakala/go-chorus"
)

// extractOptions holds the extract subcommand flags.
type extractOptions struct {
	duration    float64
	quality     string
	parallelism int
	timeout     time.Duration
	verbose     bool
	cpuprofile  string
}

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
)

func newExtractCmd() *cobra.Command {
	opts := extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract [flags] input output.wav",
		Short: "Extract the chorus of an audio file to a WAV file",
		Example: `  chorus extract song.mp3 chorus.wav              # 30 s, high quality
  chorus extract -d 15 -q low song.wav hook.wav   # 15 s, 22.05 kHz 16-bit
  chorus extract -v song.flac chorus.wav          # log each step`,
		Args: cobra.ExactArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), opts, args[0], args[1], cmd.OutOrStdout())
		},
	}
	def := chorus.DefaultConfig()
	cmd.Flags().Float64VarP(&opts.duration, "duration", "d", chorus.DefaultDurationSeconds, "clip length in seconds")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", defaultQuality, "quality tier: low, medium, high")
	cmd.Flags().IntVar(&opts.parallelism, "parallelism", def.Parallelism, "goroutines used for analysis")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", def.JobTimeout, "give up after this long")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&opts.cpuprofile, "cpuprofile", "", "write CPU profile to file")
	return cmd
}

func runExtract(ctx context.Context, opts extractOptions, inputPath, outputPath string, out io.Writer) error {
	quality, err := chorus.ParseQualityTier(opts.quality)
	if err != nil {
		return err
	}

	if opts.cpuprofile != "" {
		f, err := os.Create(opts.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	if opts.verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Duration: %.1fs", opts.duration)
		log.Printf("Quality: %s", quality)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if opts.verbose {
		log.Printf("Read %d bytes", len(data))
	}

	cfg := chorus.DefaultConfig()
	cfg.Workers = 1
	if opts.parallelism > 0 {
		cfg.Parallelism = opts.parallelism
	}
	if opts.timeout > 0 {
		cfg.JobTimeout = opts.timeout
	}
	ex, err := chorus.New(cfg)
	if err != nil {
		return err
	}
	defer ex.Close()

	start := time.Now()
	res, err := ex.Extract(ctx, chorus.Request{
		Audio:           data,
		FormatHint:      filepath.Base(inputPath),
		DurationSeconds: opts.duration,
		Quality:         quality,
	})
	if err != nil {
		_, _ = yellow.Fprintf(out, "No chorus extracted from %s: %v\n", inputPath, err)
		return err
	}
	elapsed := time.Since(start)

	if err := os.WriteFile(outputPath, res.Audio, outputPerm); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if opts.verbose {
		log.Printf("Wrote %d bytes in %v", len(res.Audio), elapsed)
	}

	_, _ = green.Fprintf(out, "Chorus at %s", formatTimestamp(res.ChorusStartSeconds))
	_, _ = fmt.Fprintf(out, " (%.1fs, score %.3f) -> %s [%d Hz, %d-bit]\n",
		res.DurationSeconds, res.Score, outputPath, res.SampleRate, res.BitDepth)
	return nil
}

// formatTimestamp renders seconds as m:ss.s.
func formatTimestamp(seconds float64) string {
	m := int(seconds) / 60
	return fmt.Sprintf("%d:%04.1f", m, seconds-float64(m*60))
}
