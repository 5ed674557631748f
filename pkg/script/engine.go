// Package script provides JavaScript expression evaluation for test steps.
package script

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/suitekit/pkg/logger"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)

// Engine wraps a goja runtime with variable management and ${} expansion.
// Methods are safe for serial use from the engine's run loop; the mutex
// guards against stray concurrent access from progress callbacks.
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]string
	output    map[string]interface{}
	mu        sync.Mutex
}

// New creates a script engine with the console, json, and output builtins.
func New() *Engine {
	e := &Engine{
		runtime:   goja.New(),
		variables: make(map[string]string),
		output:    make(map[string]interface{}),
	}
	e.setupBuiltins()
	return e
}

// setupBuiltins registers built-in functions and objects
func (e *Engine) setupBuiltins() {
	// Console, routed to the process log
	makeConsoleFunc := func(logFn func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			logFn("script: %v", args)
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	console.Set("error", makeConsoleFunc(logger.Error))
	e.runtime.Set("console", console)

	// JSON helper: json("...") parses a JSON string into a JS object
	e.runtime.Set("json", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}
		str := call.Arguments[0].String()
		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	})

	// Output object for passing values back to steps
	e.runtime.Set("output", e.output)
}

// SetVariable sets a variable in both the Go map and the JS global scope.
func (e *Engine) SetVariable(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setVariableLocked(name, value)
}

// SetVariables sets multiple variables.
func (e *Engine) SetVariables(vars map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range vars {
		e.setVariableLocked(k, v)
	}
}

func (e *Engine) setVariableLocked(name, value string) {
	e.variables[name] = value
	e.runtime.Set(name, value)
}

// GetVariable returns a variable value.
func (e *Engine) GetVariable(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.variables[name]
}

// GetOutput returns a copy of the output object (values set by scripts).
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	source := e.output
	if outputVal := e.runtime.Get("output"); outputVal != nil && !goja.IsUndefined(outputVal) {
		if m, ok := outputVal.Export().(map[string]interface{}); ok {
			source = m
		}
	}

	result := make(map[string]interface{}, len(source))
	for k, v := range source {
		result[k] = v
	}
	return result
}

// Eval evaluates a JavaScript expression and returns the result.
func (e *Engine) Eval(expr string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evalLocked(expr)
}

func (e *Engine) evalLocked(expr string) (interface{}, error) {
	result, err := e.runtime.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}

// Run executes a JavaScript script and syncs the output object back into
// variables.
func (e *Engine) Run(script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	script = e.expandLocked(script)
	e.predefineEnvVarsLocked(script)

	if _, err := e.runtime.RunString(script); err != nil {
		return fmt.Errorf("JS runtime error: %w", err)
	}

	e.syncOutputLocked()
	return nil
}

// EvalCondition evaluates a script condition and returns true/false.
// The condition may be wrapped in ${...}; non-boolean results are coerced
// using JS truthiness rules.
func (e *Engine) EvalCondition(script string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	script = extractJS(script)
	script = e.expandDollarVarsLocked(script)
	e.predefineEnvVarsLocked(script)

	result, err := e.evalLocked(script)
	if err != nil {
		return false, err
	}

	switch v := result.(type) {
	case bool:
		return v, nil
	case string:
		return v == "true", nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return result != nil, nil
	}
}

// Expand expands ${expr} and $VAR syntax in text. Expressions that fail to
// evaluate are left in place.
func (e *Engine) Expand(text string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expandLocked(text)
}

func (e *Engine) expandLocked(text string) string {
	text = e.expandExpressionsLocked(text)
	return e.expandDollarVarsLocked(text)
}

// expandExpressionsLocked evaluates ${...} expressions with brace matching.
func (e *Engine) expandExpressionsLocked(text string) string {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		// Find matching }
		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			if result[end] == '{' {
				depth++
			} else if result[end] == '}' {
				depth--
			}
			end++
		}

		if depth != 0 {
			// Unmatched brace, skip
			start = idx + 2
			continue
		}

		expr := result[idx+2 : end-1]
		value, err := e.evalLocked(expr)
		if err != nil {
			start = end
			continue
		}

		str := ""
		if value != nil {
			str = fmt.Sprintf("%v", value)
		}
		result = result[:idx] + str + result[end:]
		start = idx + len(str)
	}

	return result
}

// expandDollarVarsLocked expands $VAR syntax using stored variables.
// Names are processed longest first to avoid partial matches.
func (e *Engine) expandDollarVarsLocked(text string) string {
	names := make([]string, 0, len(e.variables))
	for name := range e.variables {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	for _, name := range names {
		text = expandDollarVar(text, name, e.variables[name])
	}
	return text
}

// expandDollarVar replaces $VAR with value, checking word boundaries.
func expandDollarVar(text, name, value string) string {
	pattern := "$" + name
	idx := 0
	for {
		pos := strings.Index(text[idx:], pattern)
		if pos == -1 {
			break
		}
		pos += idx

		// Check if followed by alphanumeric (would be a different variable)
		endPos := pos + len(pattern)
		if endPos < len(text) {
			next := text[endPos]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
				(next >= '0' && next <= '9') || next == '_' {
				idx = endPos
				continue
			}
		}

		text = text[:pos] + value + text[endPos:]
		idx = pos + len(value)
	}
	return text
}

// predefineEnvVarsLocked defines ALL_CAPS identifiers as undefined so that
// scripts referencing absent variables see falsy values instead of a
// ReferenceError.
func (e *Engine) predefineEnvVarsLocked(script string) {
	for _, name := range envVarPattern.FindAllString(script, -1) {
		if _, exists := e.variables[name]; exists {
			continue
		}
		if val := e.runtime.Get(name); val == nil || goja.IsUndefined(val) {
			e.runtime.Set(name, goja.Undefined())
		}
	}
}

// syncOutputLocked copies the JS output object back into variables.
func (e *Engine) syncOutputLocked() {
	outputVal := e.runtime.Get("output")
	if outputVal == nil || goja.IsUndefined(outputVal) {
		return
	}
	m, ok := outputVal.Export().(map[string]interface{})
	if !ok {
		return
	}
	for k, v := range m {
		e.setVariableLocked(k, fmt.Sprintf("%v", v))
	}
}

// extractJS extracts JavaScript from a ${...} wrapper if present.
func extractJS(script string) string {
	script = strings.TrimSpace(script)
	if strings.HasPrefix(script, "${") && strings.HasSuffix(script, "}") {
		return script[2 : len(script)-1]
	}
	return script
}
