package usbhost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestMonitorReportsCreatedNodes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "001"), 0o755))

	m, err := newMonitor(root, nil)
	require.NoError(t, err)
	defer m.close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "001", "004"), nil, 0o644))
	require.NoError(t, m.wait(waitCtx(t)))
}

func TestMonitorWatchesNewBus(t *testing.T) {
	root := t.TempDir()

	m, err := newMonitor(root, nil)
	require.NoError(t, err)
	defer m.close()

	require.NoError(t, os.Mkdir(filepath.Join(root, "002"), 0o755))
	require.NoError(t, m.wait(waitCtx(t)))

	// the bus directory is watched before its event is delivered
	require.NoError(t, os.WriteFile(filepath.Join(root, "002", "001"), nil, 0o644))
	require.NoError(t, m.wait(waitCtx(t)))
}

func TestMonitorKeepsEventUntilReset(t *testing.T) {
	root := t.TempDir()

	m, err := newMonitor(root, nil)
	require.NoError(t, err)
	defer m.close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "node"), nil, 0o644))
	require.Eventually(t, func() bool { return len(m.pending) == 1 }, 5*time.Second, 10*time.Millisecond)

	m.reset()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.wait(ctx), context.DeadlineExceeded)
}

func TestMonitorMissingRoot(t *testing.T) {
	_, err := newMonitor(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestPollerDetectsArrival(t *testing.T) {
	scans := []map[string]bool{
		{"001/004": true},
		{},
		{"001/004": true},
		{"001/009": true},
	}
	calls := 0
	scan := func() (map[string]bool, error) {
		s := scans[calls]
		if calls < len(scans)-1 {
			calls++
		}
		return s, nil
	}

	p := newPoller(time.Millisecond, scan, nil)
	p.reset()

	// 001/004 leaves and comes back
	require.NoError(t, p.wait(waitCtx(t)))
	assert.Equal(t, 3, calls)

	require.NoError(t, p.wait(waitCtx(t)))
	assert.Equal(t, map[string]bool{"001/009": true}, p.known)
}

func TestPollerIgnoresScanErrors(t *testing.T) {
	errBusy := errors.New("busy")
	calls := 0
	scan := func() (map[string]bool, error) {
		calls++
		if calls < 3 {
			return nil, errBusy
		}
		return map[string]bool{"003/002": true}, nil
	}

	p := newPoller(time.Millisecond, scan, nil)
	require.NoError(t, p.wait(waitCtx(t)))
	assert.Equal(t, 3, calls)
}

func TestPollerCancelled(t *testing.T) {
	p := newPoller(time.Hour, func() (map[string]bool, error) { return nil, nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.wait(ctx), context.Canceled)
}
