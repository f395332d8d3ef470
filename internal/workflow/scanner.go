package workflow

import (
	"context"
	"time"

	"github.com/arturoeanton/finsentsis/internal/port"
)

// Checkpoint is one labeled step of the simulated scan.
type Checkpoint struct {
	Percent int    `json:"percent"`
	Caption string `json:"caption"`
}

// DefaultCheckpoints is the scripted progress of a compliance scan.
var DefaultCheckpoints = []Checkpoint{
	{Percent: 20, Caption: "Scanning uploaded documents..."},
	{Percent: 45, Caption: "Cross-referencing with EU AI Act..."},
	{Percent: 70, Caption: "Checking India DPDP compliance..."},
	{Percent: 90, Caption: "Detecting risk gaps..."},
	{Percent: 100, Caption: "Analysis complete."},
}

// ScannerConfig controls scan pacing.
type ScannerConfig struct {
	Interval        time.Duration
	CompletionDelay time.Duration
	Checkpoints     []Checkpoint
}

// DefaultScannerConfig ticks every second and completes 800ms after 100%.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Interval:        time.Second,
		CompletionDelay: 800 * time.Millisecond,
		Checkpoints:     DefaultCheckpoints,
	}
}

// Scanner drives a scan's checkpoints on a clock.
type Scanner struct {
	clock port.Clock
	cfg   ScannerConfig
}

// NewScanner creates a scanner; missing config values fall back to the defaults.
func NewScanner(clock port.Clock, cfg ScannerConfig) *Scanner {
	def := DefaultScannerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.CompletionDelay <= 0 {
		cfg.CompletionDelay = def.CompletionDelay
	}
	if len(cfg.Checkpoints) == 0 {
		cfg.Checkpoints = def.Checkpoints
	}
	return &Scanner{clock: clock, cfg: cfg}
}

// Config returns the effective configuration.
func (s *Scanner) Config() ScannerConfig {
	return s.cfg
}

// Run reports every checkpoint in order, one per interval, then calls
// onComplete once after the completion delay. It returns ctx.Err() without
// calling onComplete if ctx is cancelled first.
func (s *Scanner) Run(ctx context.Context, onProgress func(Checkpoint), onComplete func()) error {
	for _, cp := range s.cfg.Checkpoints {
		if err := s.wait(ctx, s.cfg.Interval); err != nil {
			return err
		}
		onProgress(cp)
	}
	if err := s.wait(ctx, s.cfg.CompletionDelay); err != nil {
		return err
	}
	onComplete()
	return nil
}

func (s *Scanner) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// After waits for d on the wall clock.
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
