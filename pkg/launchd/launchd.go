// Package launchd talks to launchctl to probe and reload per-user agents.
package launchd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kevinelliott/launchmgr/pkg/platform"
)

// State is the observed run state of an agent.
type State int

const (
	StateUnknown State = iota
	StateRunning
	StateStopped
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ParseState maps a state name back to its State, for values read from the
// status cache.
func ParseState(s string) State {
	switch s {
	case "Running":
		return StateRunning
	case "Stopped":
		return StateStopped
	case "Error":
		return StateError
	default:
		return StateUnknown
	}
}

// Glyph returns the single-character indicator shown in list views.
func (s State) Glyph() string {
	switch s {
	case StateRunning:
		return "●"
	case StateStopped:
		return "○"
	case StateError:
		return "✗"
	default:
		return "?"
	}
}

// Status is the probed state of a single agent.
type Status struct {
	State   State
	Enabled bool
}

// Runner executes an external command and returns its stdout and stderr.
// The default implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Client probes and reloads agents through launchctl.
type Client struct {
	runner    Runner
	launchctl string
	uid       string
	timeout   time.Duration
}

// NewClient returns a client that shells out to the given launchctl binary.
func NewClient(launchctlPath string, timeout time.Duration) *Client {
	return newClient(execRunner{}, launchctlPath, platform.UID(), timeout)
}

func newClient(r Runner, launchctlPath, uid string, timeout time.Duration) *Client {
	if launchctlPath == "" {
		launchctlPath = "launchctl"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{runner: r, launchctl: launchctlPath, uid: uid, timeout: timeout}
}

// Probe reports the run state of the labeled agent. It never fails: a probe
// that cannot be completed reports StateUnknown.
func (c *Client) Probe(ctx context.Context, label string) State {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := fmt.Sprintf("gui/%s/%s", c.uid, label)
	stdout, stderr, err := c.runner.Run(ctx, c.launchctl, "print", target)
	combined := string(stdout) + string(stderr)

	if strings.Contains(combined, "No such service") {
		return StateStopped
	}
	if err != nil {
		return StateUnknown
	}
	switch {
	case strings.Contains(combined, "state = running"):
		return StateRunning
	case strings.Contains(combined, "state = stopped"):
		return StateStopped
	default:
		return StateError
	}
}

// Enabled reports whether the labeled agent is enabled in the user domain.
// launchctl print-disabled lists only overridden services, so absence from
// the list means enabled. A failed probe reports disabled.
func (c *Client) Enabled(ctx context.Context, label string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, _, err := c.runner.Run(ctx, c.launchctl, "print-disabled", "gui/"+c.uid)
	if err != nil {
		return false
	}
	return !strings.Contains(string(stdout), fmt.Sprintf("%q => disabled", label)) &&
		!strings.Contains(string(stdout), fmt.Sprintf("%q => true", label))
}

// Stat combines Probe and Enabled into one Status.
func (c *Client) Stat(ctx context.Context, label string) Status {
	return Status{
		State:   c.Probe(ctx, label),
		Enabled: c.Enabled(ctx, label),
	}
}

// Unload asks launchd to drop the descriptor at path. The caller decides
// whether a failure matters; unloading a service that was never loaded fails
// harmlessly.
func (c *Client) Unload(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.runner.Run(ctx, c.launchctl, "unload", path)
	if err != nil {
		return &Error{Op: "unload", Path: path, Output: strings.TrimSpace(string(stderr)), Err: err}
	}
	return nil
}

// Load asks launchd to pick up the descriptor at path. On failure the
// returned error carries launchctl's stderr verbatim.
func (c *Client) Load(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.runner.Run(ctx, c.launchctl, "load", path)
	if err != nil {
		return &Error{Op: "load", Path: path, Output: strings.TrimSpace(string(stderr)), Err: err}
	}
	// launchctl load can fail while still exiting zero; it prints the
	// complaint to stderr instead.
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return &Error{Op: "load", Path: path, Output: msg}
	}
	return nil
}

// Error is a failed launchctl invocation. Output holds whatever launchctl
// printed to stderr, untouched, so the user sees the tool's own words.
type Error struct {
	Op     string
	Path   string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("launchctl %s %s: %s", e.Op, e.Path, e.Output)
	}
	return fmt.Sprintf("launchctl %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
