package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// ArgEnvPrefix prefixes the environment variables that carry call arguments.
const ArgEnvPrefix = "PARLEY_ARG_"

// ErrNotRegistered is returned for commands missing from the allow-list.
var ErrNotRegistered = errors.New("process tool not registered")

// Result is the outcome of a process execution.
type Result struct {
	Name     string
	Output   any // Parsed JSON when stdout is a JSON document, else trimmed text
	Stderr   string
	ExitCode int
	IsError  bool
	Error    string
}

// Runner executes allow-listed local processes on behalf of skills.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command     string
	Args        []string // Fixed args; call arguments never become flags
	Environment map[string]string
	Description string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			r.registry[name] = RegisteredProcess{
				Command:     tool.Command,
				Args:        tool.Args,
				Environment: tool.Environment,
				Description: tool.Description,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
// Registration happens at startup, before concurrent use.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Has reports whether name is allow-listed.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Tools returns the allow-listed names, sorted.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the allow-listed command name. Arguments are passed as
// PARLEY_ARG_<KEY> environment variables, never as command-line flags,
// which rules out flag injection. A failing process is reported in the
// Result; the error is only ErrNotRegistered.
func (r *Runner) Run(ctx context.Context, name string, args map[string]any) (Result, error) {
	proc, ok := r.registry[name]
	if !ok {
		return Result{Name: name, IsError: true, Error: ErrNotRegistered.Error()},
			fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir

	env := cmd.Environ()
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+encodeArg(v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := Result{Name: name, Stderr: stderr.String()}
	if err != nil {
		result.IsError = true
		result.Error = fmt.Sprintf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, nil
	}

	result.Output = decodeOutput(stdout.String())
	return result, nil
}

// encodeArg serializes primitives with fmt and complex values as JSON.
func encodeArg(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return trimmed
}
