// Command sixteen-render runs WAV files through the tape looper offline.
//
// Usage:
//
//	sixteen-render [options] input.wav [input2.wav ...]
//	sixteen-render -preset "Clock Tear" -o echo.wav guitar.wav
//	sixteen-render -record-at 0 -play-at 2 -overdub-at 6 riff.wav
//	sixteen-render -preset warm.lua -set delayTime=250 -out renders *.wav
//
// Every input is rendered by its own engine. Several inputs are processed
// concurrently and a level report is printed when all are done.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/looper"
	"github.com/cwbudde/sixteen/looper/preset"
	"github.com/cwbudde/sixteen/measure/analysis"
)

const (
	// Frames decoded per PCM read
	readChunkFrames = 16384

	// Channel count constants for fast paths
	monoChannels   = 1
	stereoChannels = 2

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1

	// CLI defaults
	defaultBlockSize     = 512
	defaultMemorySeconds = 16.0
	minRequiredArgs      = 1
	outputSuffix         = "-sixteen"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var overrides paramSettings

	presetName := flag.String("preset", "", "Factory preset name or path to a .lua preset script")
	flag.Var(&overrides, "set", "Parameter override key=value (repeatable, e.g. -set delayTime=300)")
	recordAt := flag.Float64("record-at", -1, "Press record at this time in seconds (negative disables)")
	playAt := flag.Float64("play-at", -1, "Stop recording and start playback at this time in seconds")
	overdubAt := flag.Float64("overdub-at", -1, "Start overdubbing at this time in seconds")
	clearAt := flag.Float64("clear-at", -1, "Press clear at this time in seconds")
	memory := flag.Float64("memory", defaultMemorySeconds, "Tape memory length in seconds (1-60)")
	blockSize := flag.Int("block", defaultBlockSize, "Processing block size in frames")
	bitDepth := flag.Int("bits", 0, "Output bit depth: 16, 24 or 32 (0 keeps the input depth)")
	useF64 := flag.Bool("f64", false, "Feed the engine float64 blocks")
	fftSize := flag.Int("fft", 0, "FFT size for the spectral report (0 uses the default)")
	outDir := flag.String("out", "", "Output directory (defaults to each input's directory)")
	outFile := flag.String("o", "", "Output file (single input only)")
	jobs := flag.Int("j", runtime.NumCPU(), "Maximum number of files rendered concurrently")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav [input2.wav ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFactory presets:\n")
		for _, name := range factoryNames() {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		return errors.New("insufficient arguments")
	}
	if *outFile != "" && len(args) > 1 {
		return errors.New("-o can only be used with a single input")
	}
	if *blockSize < 1 {
		return fmt.Errorf("block size must be positive: %d", *blockSize)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	p, err := loadPreset(ctx, *presetName)
	if err != nil {
		return err
	}
	logger.Debug("preset loaded", "name", p.Name, "settings", len(p.Settings))

	cfg := renderConfig{
		preset:    p,
		overrides: overrides,
		times: transportTimes{
			recordAt:  *recordAt,
			playAt:    *playAt,
			overdubAt: *overdubAt,
			clearAt:   *clearAt,
		},
		options:   []looper.Option{looper.WithMemorySeconds(*memory)},
		blockSize: *blockSize,
		bitDepth:  *bitDepth,
		useF64:    *useF64,
		fftSize:   *fftSize,
	}

	results := make([]renderResult, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))

	for i, input := range args {
		output := outputPath(input, *outDir, *outFile)
		g.Go(func() error {
			res, err := renderFile(gctx, logger, input, output, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			logger.Info("rendered", "path", output, "frames", res.report.Frames)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printReport(message.NewPrinter(language.English), results)
	return nil
}

// factoryNames lists the built-in preset names.
func factoryNames() []string {
	bank := preset.NewFactoryBank()
	names := make([]string, bank.Count())
	for i := range names {
		names[i] = bank.Name(i)
	}
	return names
}

// printReport writes one summary line per rendered file.
func printReport(p *message.Printer, results []renderResult) {
	for _, res := range results {
		r := res.report
		p.Printf("%s: %d frames, %.2f s, %d ch, peak %.1f dBFS, centroid %.0f Hz\n",
			res.output, r.Frames, r.Seconds(), len(r.Channels), peakDB(r), r.CentroidHz)
		for ch, stats := range r.Channels {
			p.Printf("  ch%d: rms %.1f dBFS, dc %.4f, clipped %d\n",
				ch, stats.RMSDB, stats.DC, stats.Clipped)
		}
	}
}

func peakDB(r analysis.Report) float64 {
	return core.LinearToDB(r.Peak())
}
