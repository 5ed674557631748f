// Package mock provides an executor for running suites without a real device.
package mock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/core"
)

// Config configures mock executor behavior.
type Config struct {
	// FailOnCall makes executor call N fail (1-indexed). 0 = never fail.
	FailOnCall int
	// CallDelay adds artificial delay per executor call
	CallDelay time.Duration
	// Elements is what ListElements reports. Nil means one default element.
	Elements []core.Element
	// VerifyMismatch makes VerifyScreen report non-matching screens.
	VerifyMismatch bool
	// ScreenshotDir is where screenshots are written. Empty skips writing;
	// the returned artifact path is still populated.
	ScreenshotDir string
}

// Executor is a mock implementation of core.Executor.
type Executor struct {
	Config Config

	mu        sync.Mutex
	callCount int
}

// New creates a new mock executor.
func New(cfg Config) *Executor {
	return &Executor{Config: cfg}
}

// CallCount returns how many executor calls were made so far.
func (e *Executor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// call applies the configured delay and failure schedule to one executor call.
func (e *Executor) call(ctx context.Context, op string) error {
	e.mu.Lock()
	e.callCount++
	n := e.callCount
	e.mu.Unlock()

	if e.Config.CallDelay > 0 {
		timer := time.NewTimer(e.Config.CallDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.Config.FailOnCall > 0 && n == e.Config.FailOnCall {
		return fmt.Errorf("mock failure on call %d (%s)", n, op)
	}
	return nil
}

func (e *Executor) Tap(ctx context.Context, target core.Target) error {
	return e.call(ctx, "tap "+target.String())
}

func (e *Executor) Type(ctx context.Context, text string, submit bool) error {
	return e.call(ctx, "type")
}

func (e *Executor) Swipe(ctx context.Context, direction core.Direction, distance int) error {
	return e.call(ctx, "swipe "+string(direction))
}

func (e *Executor) PressButton(ctx context.Context, name string) error {
	return e.call(ctx, "pressButton "+name)
}

func (e *Executor) LaunchApp(ctx context.Context, pkg string) error {
	return e.call(ctx, "launchApp "+pkg)
}

func (e *Executor) TerminateApp(ctx context.Context, pkg string) error {
	return e.call(ctx, "terminateApp "+pkg)
}

func (e *Executor) SetOrientation(ctx context.Context, mode core.Orientation) error {
	return e.call(ctx, "setOrientation "+string(mode))
}

// TakeScreenshot writes a canned PNG when a screenshot directory is
// configured.
func (e *Executor) TakeScreenshot(ctx context.Context, name string) (core.Artifact, error) {
	if err := e.call(ctx, "takeScreenshot "+name); err != nil {
		return core.Artifact{}, err
	}

	filename := name + ".png"
	path := filename
	if e.Config.ScreenshotDir != "" {
		path = filepath.Join(e.Config.ScreenshotDir, filename)
		if err := os.MkdirAll(e.Config.ScreenshotDir, 0o755); err != nil {
			return core.Artifact{}, fmt.Errorf("create screenshot dir: %w", err)
		}
		if err := os.WriteFile(path, pngPixel, 0o644); err != nil {
			return core.Artifact{}, fmt.Errorf("write screenshot: %w", err)
		}
	}

	return core.Artifact{Name: name, Path: path}, nil
}

// ListElements reports the configured elements, or one default element.
func (e *Executor) ListElements(ctx context.Context) ([]core.Element, error) {
	if err := e.call(ctx, "listElements"); err != nil {
		return nil, err
	}

	if e.Config.Elements != nil {
		return e.Config.Elements, nil
	}
	return []core.Element{
		{
			ID:      "mock-element",
			Text:    "Mock Element",
			Visible: true,
			Enabled: true,
			Bounds:  core.Bounds{X: 100, Y: 200, Width: 200, Height: 50},
		},
	}, nil
}

func (e *Executor) VerifyScreen(ctx context.Context, expectation string, strictness core.Strictness) (core.Verification, error) {
	if err := e.call(ctx, "verifyScreen"); err != nil {
		return core.Verification{}, err
	}

	if e.Config.VerifyMismatch {
		return core.Verification{
			Matches:    false,
			Confidence: 0.2,
			Details:    fmt.Sprintf("mock mismatch for %q", expectation),
		}, nil
	}
	return core.Verification{Matches: true, Confidence: 0.95}, nil
}

// pngPixel is a minimal valid PNG (1x1 transparent pixel).
var pngPixel = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}
