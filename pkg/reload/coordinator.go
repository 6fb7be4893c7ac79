// Package reload writes edited descriptors to disk and syncs launchd with
// the new contents.
package reload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/plist"
)

// Outcome classifies how a save ended.
type Outcome int

const (
	// Saved means the file was written and launchd picked it up.
	Saved Outcome = iota
	// SavedButReloadFailed means the file was written but launchctl load
	// failed; the on-disk descriptor and launchd disagree until the user
	// intervenes.
	SavedButReloadFailed
	// SaveFailed means the file could not be written; nothing was reloaded.
	SaveFailed
)

// Result describes one completed save.
type Result struct {
	Outcome Outcome
	// Diagnostic carries launchctl's own words when the reload failed.
	Diagnostic string
	// Err is set only for SaveFailed.
	Err error
	// Status is the agent's state probed after the attempt, whatever the
	// outcome of the reload itself.
	Status launchd.Status
}

// Reloader is the launchctl surface the coordinator needs. *launchd.Client
// satisfies it.
type Reloader interface {
	Unload(ctx context.Context, path string) error
	Load(ctx context.Context, path string) error
	Stat(ctx context.Context, label string) launchd.Status
}

// Coordinator serializes saves so two edits can never interleave their
// unload/load sequences.
type Coordinator struct {
	client Reloader
	mu     sync.Mutex
	busy   bool
}

// ErrSaveInFlight is returned when a save is requested while another is
// still running.
var ErrSaveInFlight = errors.New("a save is already in progress")

// NewCoordinator returns a coordinator over the given launchctl client.
func NewCoordinator(client Reloader) *Coordinator {
	return &Coordinator{client: client}
}

// Save writes doc to path and asks launchd to reload it: write, unload,
// load, probe. The unload step is best-effort since the agent may simply not
// be loaded; a load failure is reported but never rolls back the file. The
// final probe always runs so the caller sees the agent's real state.
func (c *Coordinator) Save(ctx context.Context, path, label string, doc *plist.Document) Result {
	if !c.acquire() {
		return Result{Outcome: SaveFailed, Err: ErrSaveInFlight}
	}
	defer c.release()

	if err := os.WriteFile(path, doc.Serialize(), 0644); err != nil {
		return Result{
			Outcome: SaveFailed,
			Err:     fmt.Errorf("write %s: %w", path, err),
			Status:  c.client.Stat(ctx, label),
		}
	}

	_ = c.client.Unload(ctx, path)

	res := Result{Outcome: Saved}
	if err := c.client.Load(ctx, path); err != nil {
		res.Outcome = SavedButReloadFailed
		var le *launchd.Error
		if errors.As(err, &le) && le.Output != "" {
			res.Diagnostic = le.Output
		} else {
			res.Diagnostic = err.Error()
		}
	}

	res.Status = c.client.Stat(ctx, label)
	return res
}

func (c *Coordinator) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
