package reload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kevinelliott/launchmgr/pkg/launchd"
	"github.com/kevinelliott/launchmgr/pkg/plist"
)

type fakeReloader struct {
	unloadErr error
	loadErr   error
	status    launchd.Status

	mu      sync.Mutex
	calls   []string
	started chan struct{}
	block   chan struct{}
}

func (f *fakeReloader) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeReloader) Unload(ctx context.Context, path string) error {
	f.record("unload")
	return f.unloadErr
}

func (f *fakeReloader) Load(ctx context.Context, path string) error {
	f.record("load")
	if f.started != nil {
		close(f.started)
		<-f.block
	}
	return f.loadErr
}

func (f *fakeReloader) Stat(ctx context.Context, label string) launchd.Status {
	f.record("stat")
	return f.status
}

func testDoc(t *testing.T) *plist.Document {
	t.Helper()
	doc := &plist.Document{}
	if err := doc.SetField(plist.FieldLabel, "com.user.test"); err != nil {
		t.Fatal(err)
	}
	if err := doc.SetField(plist.FieldProgram, "/bin/true"); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSaveHappyPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.plist")
	doc := testDoc(t)

	f := &fakeReloader{status: launchd.Status{State: launchd.StateRunning, Enabled: true}}
	c := NewCoordinator(f)

	res := c.Save(context.Background(), path, "com.user.test", doc)
	if res.Outcome != Saved {
		t.Fatalf("Outcome = %v, want Saved (err=%v, diag=%q)", res.Outcome, res.Err, res.Diagnostic)
	}
	if res.Status.State != launchd.StateRunning {
		t.Errorf("Status.State = %v, want re-probed Running", res.Status.State)
	}

	want := []string{"unload", "load", "stat"}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, f.calls[i], want[i])
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, doc.Serialize()) {
		t.Error("file contents differ from serialized document")
	}
}

func TestSaveUnloadFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.plist")

	f := &fakeReloader{
		unloadErr: &launchd.Error{Op: "unload", Path: path, Output: "Could not find specified service"},
	}
	c := NewCoordinator(f)

	res := c.Save(context.Background(), path, "com.user.test", testDoc(t))
	if res.Outcome != Saved {
		t.Errorf("Outcome = %v, want Saved despite unload failure", res.Outcome)
	}
	if res.Diagnostic != "" {
		t.Errorf("Diagnostic = %q, want empty", res.Diagnostic)
	}
}

func TestSaveLoadFailureKeepsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.plist")
	doc := testDoc(t)

	f := &fakeReloader{
		loadErr: &launchd.Error{Op: "load", Path: path, Output: path + ": service already loaded"},
		status:  launchd.Status{State: launchd.StateError},
	}
	c := NewCoordinator(f)

	res := c.Save(context.Background(), path, "com.user.test", doc)
	if res.Outcome != SavedButReloadFailed {
		t.Fatalf("Outcome = %v, want SavedButReloadFailed", res.Outcome)
	}
	if res.Diagnostic != path+": service already loaded" {
		t.Errorf("Diagnostic = %q, want launchctl's stderr verbatim", res.Diagnostic)
	}
	if res.Status.State != launchd.StateError {
		t.Errorf("Status.State = %v, want re-probed Error", res.Status.State)
	}

	// The edit is not rolled back: the file keeps the new contents.
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, doc.Serialize()) {
		t.Error("file contents differ from serialized document after failed reload")
	}
}

func TestSaveWriteFailure(t *testing.T) {
	f := &fakeReloader{}
	c := NewCoordinator(f)

	res := c.Save(context.Background(), "/nonexistent/dir/agent.plist", "com.user.test", testDoc(t))
	if res.Outcome != SaveFailed {
		t.Fatalf("Outcome = %v, want SaveFailed", res.Outcome)
	}
	if res.Err == nil {
		t.Error("Err = nil, want write error")
	}

	// No reload is attempted when the write fails.
	for _, call := range f.calls {
		if call == "unload" || call == "load" {
			t.Errorf("unexpected %s call after write failure", call)
		}
	}
}

func TestSaveIsSingleFlight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.plist")

	f := &fakeReloader{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	c := NewCoordinator(f)

	done := make(chan Result)
	go func() {
		done <- c.Save(context.Background(), path, "com.user.test", testDoc(t))
	}()
	<-f.started

	// A second save while the first is inside launchctl is refused.
	res := c.Save(context.Background(), path, "com.user.test", testDoc(t))
	if res.Outcome != SaveFailed || res.Err != ErrSaveInFlight {
		t.Errorf("concurrent save = %v/%v, want SaveFailed/ErrSaveInFlight", res.Outcome, res.Err)
	}

	close(f.block)
	first := <-done
	if first.Outcome != Saved {
		t.Errorf("first save outcome = %v, want Saved", first.Outcome)
	}

	// Once the first completes, saving works again.
	f.started = nil
	if res := c.Save(context.Background(), path, "com.user.test", testDoc(t)); res.Outcome != Saved {
		t.Errorf("follow-up save outcome = %v, want Saved", res.Outcome)
	}
}
