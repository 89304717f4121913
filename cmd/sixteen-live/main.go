// Command sixteen-live runs the tape looper on the default duplex audio
// device with keyboard transport control.
//
// Usage:
//
//	sixteen-live [options]
//	sixteen-live -preset "Reverse Smear"
//	sixteen-live -rate 44100 -period 5ms -preset my.lua
//
// Keys: r record, p play, o overdub, c clear, h half-speed, v reverse,
// a authentic, l limiter, q quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"golang.org/x/term"

	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/looper"
)

const (
	bytesPerSample = 4
	stereoChannels = 2

	keyCtrlC  = 0x03
	keyEscape = 0x1b

	// Clear is held this long so at least one device period sees it.
	clearHold = 100 * time.Millisecond

	meterWidth   = 24
	meterFloorDB = -60.0

	// CLI defaults
	defaultSampleRate    = 48000
	defaultChannels      = 2
	defaultPeriod        = 10 * time.Millisecond
	defaultMeterInterval = 100 * time.Millisecond
	defaultMemorySeconds = 16.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sampleRate := flag.Int("rate", defaultSampleRate, "Device sample rate in Hz")
	channels := flag.Int("channels", defaultChannels, "Capture and playback channel count")
	period := flag.Duration("period", defaultPeriod, "Device period")
	presetName := flag.String("preset", "", "Factory preset name or path to a .lua preset script")
	memory := flag.Float64("memory", defaultMemorySeconds, "Tape memory length in seconds (1-60)")
	meterInterval := flag.Duration("meter", defaultMeterInterval, "Meter refresh interval (0 disables)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *channels < 1 {
		return fmt.Errorf("channel count must be positive: %d", *channels)
	}
	if *sampleRate < 1 {
		return fmt.Errorf("sample rate must be positive: %d", *sampleRate)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	params := looper.NewParams()
	if *presetName != "" {
		p, err := loadPreset(ctx, *presetName)
		if err != nil {
			return fmt.Errorf("failed to load preset: %w", err)
		}
		p.Apply(params)
		logger.Info("preset loaded", "name", p.Name)
	}

	proc, err := looper.New(params, looper.WithMemorySeconds(*memory))
	if err != nil {
		return err
	}

	frames := periodFrames(float64(*sampleRate), *period)
	proc.PrepareWith(
		core.WithSampleRate(float64(*sampleRate)),
		core.WithBlockSize(frames),
		core.WithChannels(*channels),
	)
	bridge := newDuplexBridge(proc, *channels, frames)

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug("audio backend", "msg", msg)
	})
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Duplex)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(*channels)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(*channels)
	cfg.SampleRate = uint32(*sampleRate)
	cfg.PeriodSizeInFrames = uint32(frames)

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: bridge.process,
	})
	if err != nil {
		return fmt.Errorf("failed to init duplex device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	logger.Info("running",
		"rate", *sampleRate, "channels", *channels, "period_frames", frames,
		"memory_s", *memory)

	keys, restore, err := readKeys(ctx)
	if err != nil {
		return err
	}
	defer restore()

	var wg sync.WaitGroup
	if *meterInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			printMeter(ctx, proc, *meterInterval)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			cancel()
			wg.Wait()
			fmt.Fprint(os.Stderr, "\r\n")
			return nil
		case key, ok := <-keys:
			if !ok {
				keys = nil
				cancel()
				continue
			}
			action := handleKey(params, key)
			if !action.handled {
				continue
			}
			if action.quit {
				cancel()
				continue
			}
			logger.Debug("key", "param", action.id.String(), "on", action.on)
			if action.momentary {
				id := action.id
				time.AfterFunc(clearHold, func() { params.SetBool(id, false) })
			}
		}
	}
}

// readKeys puts stdin into raw mode and streams key bytes until ctx ends.
// The returned function restores the terminal.
func readKeys(ctx context.Context) (<-chan byte, func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil, errors.New("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	restore := func() { _ = term.Restore(fd, oldState) }

	keys := make(chan byte, 16)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	return keys, restore, nil
}

// printMeter redraws the status line until ctx ends.
func printMeter(ctx context.Context, proc *looper.Processor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			line := meterLine(proc.Meter().Read(), proc.State(), proc.Loop(), proc.SampleRate())
			fmt.Fprintf(os.Stderr, "\r%s\x1b[K", line)
		}
	}
}
