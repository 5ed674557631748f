package engine

import (
	"context"
	"sync"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/config"
	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/script"
)

// mockExecutor implements core.Executor for testing. Each method counts its
// calls and delegates to an optional override.
type mockExecutor struct {
	mu    sync.Mutex
	calls map[string]int

	tapFunc        func(ctx context.Context, target core.Target) error
	typeFunc       func(ctx context.Context, text string, submit bool) error
	swipeFunc      func(ctx context.Context, direction core.Direction, distance int) error
	pressFunc      func(ctx context.Context, name string) error
	launchFunc     func(ctx context.Context, pkg string) error
	terminateFunc  func(ctx context.Context, pkg string) error
	orientFunc     func(ctx context.Context, mode core.Orientation) error
	screenshotFunc func(ctx context.Context, name string) (core.Artifact, error)
	listFunc       func(ctx context.Context) ([]core.Element, error)
	verifyFunc     func(ctx context.Context, expectation string, strictness core.Strictness) (core.Verification, error)
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{calls: make(map[string]int)}
}

func (m *mockExecutor) record(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

func (m *mockExecutor) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockExecutor) Tap(ctx context.Context, target core.Target) error {
	m.record("tap")
	if m.tapFunc != nil {
		return m.tapFunc(ctx, target)
	}
	return nil
}

func (m *mockExecutor) Type(ctx context.Context, text string, submit bool) error {
	m.record("type")
	if m.typeFunc != nil {
		return m.typeFunc(ctx, text, submit)
	}
	return nil
}

func (m *mockExecutor) Swipe(ctx context.Context, direction core.Direction, distance int) error {
	m.record("swipe")
	if m.swipeFunc != nil {
		return m.swipeFunc(ctx, direction, distance)
	}
	return nil
}

func (m *mockExecutor) PressButton(ctx context.Context, name string) error {
	m.record("pressButton")
	if m.pressFunc != nil {
		return m.pressFunc(ctx, name)
	}
	return nil
}

func (m *mockExecutor) LaunchApp(ctx context.Context, pkg string) error {
	m.record("launchApp")
	if m.launchFunc != nil {
		return m.launchFunc(ctx, pkg)
	}
	return nil
}

func (m *mockExecutor) TerminateApp(ctx context.Context, pkg string) error {
	m.record("terminateApp")
	if m.terminateFunc != nil {
		return m.terminateFunc(ctx, pkg)
	}
	return nil
}

func (m *mockExecutor) SetOrientation(ctx context.Context, mode core.Orientation) error {
	m.record("setOrientation")
	if m.orientFunc != nil {
		return m.orientFunc(ctx, mode)
	}
	return nil
}

func (m *mockExecutor) TakeScreenshot(ctx context.Context, name string) (core.Artifact, error) {
	m.record("takeScreenshot")
	if m.screenshotFunc != nil {
		return m.screenshotFunc(ctx, name)
	}
	return core.Artifact{Name: name, Path: "screenshots/" + name + ".png"}, nil
}

func (m *mockExecutor) ListElements(ctx context.Context) ([]core.Element, error) {
	m.record("listElements")
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockExecutor) VerifyScreen(ctx context.Context, expectation string, strictness core.Strictness) (core.Verification, error) {
	m.record("verifyScreen")
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, expectation, strictness)
	}
	return core.Verification{Matches: true, Confidence: 1}, nil
}

func testApp() config.App {
	return config.App{
		PackageName:         "com.example.app",
		DefaultTimeout:      2 * time.Second,
		DefaultPollInterval: 20 * time.Millisecond,
		AppLaunchTimeout:    2 * time.Second,
		ScreenshotDirectory: "screenshots",
	}
}

func newTestScope(exec core.Executor) *scopeRunner {
	return &scopeRunner{
		exec:      exec,
		app:       testApp(),
		script:    script.New(),
		suiteName: "test-suite",
	}
}
