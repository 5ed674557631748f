package suite

import "time"

// Suite is a named collection of tests with shared lifecycle hooks.
type Suite struct {
	Name        string
	Description string

	// Lifecycle hooks. BeforeAll/AfterAll run once per suite,
	// BeforeEach/AfterEach run around every test.
	BeforeAll  []Step
	AfterAll   []Step
	BeforeEach []Step
	AfterEach  []Step

	Tests []*Test
}

// Test is a named sequence of steps.
type Test struct {
	Name        string
	Description string
	Tags        []string
	Timeout     time.Duration // 0 means the engine default applies
	Steps       []Step
}

// HasTag reports whether the test carries the given tag.
func (t *Test) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// ShouldIncludeTest applies tag filters to a test. With a non-empty include
// list the test must carry at least one of the included tags; any excluded
// tag rejects the test regardless of includes.
func ShouldIncludeTest(t *Test, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if t.HasTag(include) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if t.HasTag(exclude) {
			return false
		}
	}

	return true
}

// Builder assembles a Suite. All registration methods append; hook and test
// order is the registration order.
type Builder struct {
	s Suite
}

// New creates a suite builder.
func New(name string) *Builder {
	return &Builder{s: Suite{Name: name}}
}

// Description sets the suite description.
func (b *Builder) Description(d string) *Builder {
	b.s.Description = d
	return b
}

// BeforeAll appends steps to the suite-level setup hook.
func (b *Builder) BeforeAll(steps ...Step) *Builder {
	b.s.BeforeAll = append(b.s.BeforeAll, steps...)
	return b
}

// AfterAll appends steps to the suite-level teardown hook.
func (b *Builder) AfterAll(steps ...Step) *Builder {
	b.s.AfterAll = append(b.s.AfterAll, steps...)
	return b
}

// BeforeEach appends steps to the per-test setup hook.
func (b *Builder) BeforeEach(steps ...Step) *Builder {
	b.s.BeforeEach = append(b.s.BeforeEach, steps...)
	return b
}

// AfterEach appends steps to the per-test teardown hook.
func (b *Builder) AfterEach(steps ...Step) *Builder {
	b.s.AfterEach = append(b.s.AfterEach, steps...)
	return b
}

// Test appends a test with the given steps.
func (b *Builder) Test(name string, steps ...Step) *Builder {
	return b.AddTest(&Test{Name: name, Steps: steps})
}

// TestWithTimeout appends a test with its own watchdog timeout.
func (b *Builder) TestWithTimeout(name string, timeout time.Duration, steps ...Step) *Builder {
	return b.AddTest(&Test{Name: name, Timeout: timeout, Steps: steps})
}

// AddTest appends a fully specified test, e.g. one carrying tags.
func (b *Builder) AddTest(t *Test) *Builder {
	b.s.Tests = append(b.s.Tests, t)
	return b
}

// Build returns the assembled suite.
func (b *Builder) Build() *Suite {
	s := b.s
	return &s
}
