package suite

import (
	"testing"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/core"
)

func TestTest_HasTag(t *testing.T) {
	test := &Test{
		Name: "login",
		Tags: []string{"smoke", "auth"},
	}

	tests := []struct {
		tag      string
		expected bool
	}{
		{"smoke", true},
		{"auth", true},
		{"regression", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := test.HasTag(tt.tag); got != tt.expected {
			t.Errorf("HasTag(%q)=%v, want %v", tt.tag, got, tt.expected)
		}
	}
}

func TestBuilder(t *testing.T) {
	launch := &LaunchAppStep{}
	terminate := &TerminateAppStep{}
	reset := &PressButtonStep{Button: "home"}
	shot := &TakeScreenshotStep{Name: "teardown"}

	s := New("checkout").
		Description("Checkout happy path").
		BeforeAll(launch).
		AfterAll(terminate).
		BeforeEach(reset).
		AfterEach(shot).
		TestWithTimeout("add to cart", 30*time.Second, &TapStep{Target: core.Target{ID: "add"}}).
		Test("pay", &TapStep{Target: core.Target{ID: "pay"}}).
		AddTest(&Test{Name: "tagged", Tags: []string{"smoke"}}).
		Build()

	if s.Name != "checkout" {
		t.Errorf("Name=%q, want %q", s.Name, "checkout")
	}
	if s.Description != "Checkout happy path" {
		t.Errorf("Description=%q", s.Description)
	}
	if len(s.BeforeAll) != 1 || len(s.AfterAll) != 1 || len(s.BeforeEach) != 1 || len(s.AfterEach) != 1 {
		t.Errorf("hook lengths = %d/%d/%d/%d, want 1/1/1/1",
			len(s.BeforeAll), len(s.AfterAll), len(s.BeforeEach), len(s.AfterEach))
	}
	if len(s.Tests) != 3 {
		t.Fatalf("len(Tests)=%d, want 3", len(s.Tests))
	}
	if s.Tests[0].Name != "add to cart" || s.Tests[1].Name != "pay" || s.Tests[2].Name != "tagged" {
		t.Errorf("test order = %q, %q, %q", s.Tests[0].Name, s.Tests[1].Name, s.Tests[2].Name)
	}
	if s.Tests[0].Timeout != 30*time.Second {
		t.Errorf("Timeout=%v, want 30s", s.Tests[0].Timeout)
	}
	if !s.Tests[2].HasTag("smoke") {
		t.Error("Tests[2] lost its tag")
	}
}

func TestShouldIncludeTest(t *testing.T) {
	smoke := &Test{Name: "a", Tags: []string{"smoke"}}
	slow := &Test{Name: "b", Tags: []string{"smoke", "slow"}}
	untagged := &Test{Name: "c"}

	tests := []struct {
		name    string
		test    *Test
		include []string
		exclude []string
		want    bool
	}{
		{"no filters include everything", untagged, nil, nil, true},
		{"include matches", smoke, []string{"smoke"}, nil, true},
		{"include mismatch", untagged, []string{"smoke"}, nil, false},
		{"any include tag is enough", slow, []string{"regression", "slow"}, nil, true},
		{"exclude wins over include", slow, []string{"smoke"}, []string{"slow"}, false},
		{"exclude without include", slow, nil, []string{"slow"}, false},
		{"exclude leaves others alone", smoke, nil, []string{"slow"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldIncludeTest(tt.test, tt.include, tt.exclude); got != tt.want {
				t.Errorf("ShouldIncludeTest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder_AppendsInRegistrationOrder(t *testing.T) {
	first := &TapStep{Target: core.Target{ID: "first"}}
	second := &TapStep{Target: core.Target{ID: "second"}}

	s := New("order").
		BeforeEach(first).
		BeforeEach(second).
		Build()

	if len(s.BeforeEach) != 2 {
		t.Fatalf("len(BeforeEach)=%d, want 2", len(s.BeforeEach))
	}
	if s.BeforeEach[0] != Step(first) || s.BeforeEach[1] != Step(second) {
		t.Error("BeforeEach steps are not in registration order")
	}
}
