package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/suitekit/pkg/core"
)

// Executor implements core.Executor over an agent session.
type Executor struct {
	client        *Client
	screenshotDir string
}

// NewExecutor creates an executor backed by the client's session.
// Screenshots are saved under screenshotDir.
func NewExecutor(client *Client, screenshotDir string) *Executor {
	return &Executor{
		client:        client,
		screenshotDir: screenshotDir,
	}
}

// call routes one operation through the active session, decoding the
// response into out when non-nil.
func (e *Executor) call(ctx context.Context, method, path string, body, out interface{}) error {
	if !e.client.HasSession() {
		return fmt.Errorf("no active session")
	}
	return e.client.requestInto(ctx, method, e.client.sessionPath(path), body, out)
}

// Tap taps the element identified by target.
func (e *Executor) Tap(ctx context.Context, target core.Target) error {
	return e.call(ctx, "POST", "/tap", target, nil)
}

// Type types text into the focused element.
func (e *Executor) Type(ctx context.Context, text string, submit bool) error {
	return e.call(ctx, "POST", "/type", typeRequest{Text: text, Submit: submit}, nil)
}

// Swipe performs a directional swipe gesture.
func (e *Executor) Swipe(ctx context.Context, direction core.Direction, distance int) error {
	return e.call(ctx, "POST", "/swipe", swipeRequest{Direction: string(direction), Distance: distance}, nil)
}

// PressButton presses a named hardware or navigation button.
func (e *Executor) PressButton(ctx context.Context, name string) error {
	return e.call(ctx, "POST", "/button", buttonRequest{Name: name}, nil)
}

// LaunchApp launches the app with the given package name.
func (e *Executor) LaunchApp(ctx context.Context, pkg string) error {
	return e.call(ctx, "POST", "/app/launch", appRequest{Package: pkg}, nil)
}

// TerminateApp stops the app with the given package name.
func (e *Executor) TerminateApp(ctx context.Context, pkg string) error {
	return e.call(ctx, "POST", "/app/terminate", appRequest{Package: pkg}, nil)
}

// SetOrientation rotates the screen.
func (e *Executor) SetOrientation(ctx context.Context, mode core.Orientation) error {
	return e.call(ctx, "POST", "/orientation", orientationRequest{Orientation: string(mode)}, nil)
}

// ListElements returns the currently visible UI elements.
func (e *Executor) ListElements(ctx context.Context) ([]core.Element, error) {
	var resp struct {
		Value []core.Element `json:"value"`
	}
	if err := e.call(ctx, "GET", "/elements", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// TakeScreenshot downloads the current screen and saves it as name.png
// under the screenshot directory.
func (e *Executor) TakeScreenshot(ctx context.Context, name string) (core.Artifact, error) {
	var resp Response
	if err := e.call(ctx, "GET", "/screenshot", nil, &resp); err != nil {
		return core.Artifact{}, err
	}

	b64, ok := resp.Value.(string)
	if !ok {
		return core.Artifact{}, fmt.Errorf("unexpected screenshot response")
	}
	png, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return core.Artifact{}, fmt.Errorf("decode screenshot: %w", err)
	}

	path := filepath.Join(e.screenshotDir, name+".png")
	if e.screenshotDir != "" {
		if err := os.MkdirAll(e.screenshotDir, 0o755); err != nil {
			return core.Artifact{}, fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return core.Artifact{}, fmt.Errorf("write screenshot %s: %w", path, err)
	}
	return core.Artifact{Name: name, Path: path}, nil
}

// VerifyScreen checks the screen against a natural-language expectation.
func (e *Executor) VerifyScreen(ctx context.Context, expectation string, strictness core.Strictness) (core.Verification, error) {
	var resp struct {
		Value core.Verification `json:"value"`
	}
	req := verifyRequest{Expectation: expectation, Strictness: string(strictness.OrDefault())}
	if err := e.call(ctx, "POST", "/verify", req, &resp); err != nil {
		return core.Verification{}, err
	}
	return resp.Value, nil
}
