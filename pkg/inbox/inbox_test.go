package inbox_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/inbox"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	fail  string
}

func (r *recorder) handle(ctx context.Context, path string) (*core.Run, error) {
	r.mu.Lock()
	r.paths = append(r.paths, filepath.Base(path))
	r.mu.Unlock()
	run := core.NewRun(slog.New(slog.DiscardHandler))
	if filepath.Base(path) == r.fail {
		return run, errors.New("broken finding aid")
	}
	return run, nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startInbox(t *testing.T, dir string, scan bool, rec *recorder, events chan core.JobEvent) *inbox.Inbox {
	t.Helper()
	w := inbox.New(inbox.Config{
		Dir:      dir,
		Debounce: 20 * time.Millisecond,
		Scan:     scan,
		Logger:   slog.New(slog.DiscardHandler),
		Events:   events,
	}, rec.handle)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = w.Stop(ctx)
	})
	return w
}

func waitEvent(t *testing.T, events <-chan core.JobEvent, status core.JobStatus) core.JobEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Status == status {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", status)
			return core.JobEvent{}
		}
	}
}

func TestInbox_ImportsDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	events := make(chan core.JobEvent, 16)
	w := startInbox(t, dir, false, rec, events)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fonds.xml"), []byte("<ead/>"), 0644))

	done := waitEvent(t, events, core.JobCompleted)
	assert.Equal(t, filepath.Join(dir, "fonds.xml"), done.Source)
	assert.NotEmpty(t, done.RunID)

	assert.Equal(t, []string{"fonds.xml"}, rec.seen())
	stats := w.Stats()
	assert.True(t, stats.Active)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Failed)
}

func TestInbox_ScanAndFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "batch"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch", "broken.xml"), []byte("<ead/>"), 0644))

	rec := &recorder{fail: "broken.xml"}
	events := make(chan core.JobEvent, 16)
	w := startInbox(t, dir, true, rec, events)

	failed := waitEvent(t, events, core.JobFailed)
	assert.EqualError(t, failed.Err, "broken finding aid")
	assert.Contains(t, failed.String(), "failed")

	assert.Equal(t, 1, w.Stats().Failed)
	assert.Equal(t, filepath.Join(dir, "batch", "broken.xml"), w.Stats().Last)
}

func TestInbox_Stop(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := inbox.New(inbox.Config{Dir: dir, Logger: slog.New(slog.DiscardHandler)}, rec.handle)
	require.NoError(t, w.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	require.Eventually(t, func() bool { return !w.Stats().Active }, time.Second, 10*time.Millisecond)
}

func TestInbox_InvalidPattern(t *testing.T) {
	w := inbox.New(inbox.Config{Dir: t.TempDir(), Pattern: "[", Logger: slog.New(slog.DiscardHandler)}, (&recorder{}).handle)
	assert.Error(t, w.Start(context.Background()))
}
