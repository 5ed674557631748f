// Package core provides the execution model types for suitekit.
package core

import (
	"context"
	"fmt"
	"strings"
)

// Executor defines the interface for performing UI actions against an app.
// Implementations: devicelab agent, mock, etc.
// The engine handles suite logic; the Executor just performs individual actions.
type Executor interface {
	// Tap taps the element identified by target
	Tap(ctx context.Context, target Target) error

	// Type types text into the focused element, optionally submitting
	Type(ctx context.Context, text string, submit bool) error

	// Swipe performs a directional swipe gesture
	Swipe(ctx context.Context, direction Direction, distance int) error

	// PressButton presses a named hardware or navigation button
	PressButton(ctx context.Context, name string) error

	// LaunchApp launches the app with the given package name
	LaunchApp(ctx context.Context, pkg string) error

	// TerminateApp stops the app with the given package name
	TerminateApp(ctx context.Context, pkg string) error

	// SetOrientation rotates the screen to the given orientation
	SetOrientation(ctx context.Context, mode Orientation) error

	// TakeScreenshot captures the current screen and returns the saved artifact
	TakeScreenshot(ctx context.Context, name string) (Artifact, error)

	// ListElements returns the currently visible UI elements
	ListElements(ctx context.Context) ([]Element, error)

	// VerifyScreen checks the screen against a natural-language expectation.
	// A non-matching screen is reported in the Verification, not as an error.
	VerifyScreen(ctx context.Context, expectation string, strictness Strictness) (Verification, error)
}

// Target identifies a UI element. All non-empty criteria must match.
type Target struct {
	ID    string `json:"id,omitempty"`    // Stable element identifier
	Text  string `json:"text,omitempty"`  // Visible text, exact match
	Label string `json:"label,omitempty"` // Accessibility label, exact match
}

// Empty reports whether no criteria are set.
func (t Target) Empty() bool {
	return t.ID == "" && t.Text == "" && t.Label == ""
}

// Matches reports whether the element satisfies every non-empty criterion.
// An empty target matches nothing.
func (t Target) Matches(el Element) bool {
	if t.Empty() {
		return false
	}
	if t.ID != "" && t.ID != el.ID {
		return false
	}
	if t.Text != "" && t.Text != el.Text {
		return false
	}
	if t.Label != "" && t.Label != el.Label {
		return false
	}
	return true
}

// String returns a human-readable description for error messages.
func (t Target) String() string {
	var parts []string
	if t.ID != "" {
		parts = append(parts, fmt.Sprintf("id=%q", t.ID))
	}
	if t.Text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", t.Text))
	}
	if t.Label != "" {
		parts = append(parts, fmt.Sprintf("label=%q", t.Label))
	}
	if len(parts) == 0 {
		return "<empty target>"
	}
	return strings.Join(parts, " ")
}

// Element represents a UI element as reported by the executor backend.
type Element struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	Label   string `json:"label,omitempty"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Bounds  Bounds `json:"bounds"`
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Direction is a swipe direction.
type Direction string

// Direction values
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Orientation is a screen orientation.
type Orientation string

// Orientation values
const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Strictness controls how tolerant screen verification is.
type Strictness string

// Strictness values
const (
	StrictnessStrict  Strictness = "strict"
	StrictnessNormal  Strictness = "normal"
	StrictnessLenient Strictness = "lenient"
)

// OrDefault returns the strictness, defaulting to normal when unset.
func (s Strictness) OrDefault() Strictness {
	if s == "" {
		return StrictnessNormal
	}
	return s
}

// Verification is the outcome of a screen verification.
type Verification struct {
	Matches    bool    `json:"matches"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details,omitempty"`
}

// Artifact references a file captured during execution, e.g. a screenshot.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"` // File path relative to the output directory
}
