package usbhost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// connectEvents reports device arrivals to WaitForConnect.
type connectEvents interface {
	// reset forgets arrivals seen so far
	reset()
	wait(ctx context.Context) error
	close() error
}

// monitor turns usbfs Create events into connect events.
type monitor struct {
	watcher *fsnotify.Watcher
	logger  Logger

	pending chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func newMonitor(root string, logger Logger) (*monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	// one directory per bus
	entries, err := os.ReadDir(root)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.Add(filepath.Join(root, e.Name())); err != nil && logger != nil {
			logger.Debug("watch bus directory failed", "dir", e.Name(), "error", err)
		}
	}

	m := &monitor{
		watcher: w,
		logger:  logger,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.loop()
	return m, nil
}

func (m *monitor) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ev)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			if m.logger != nil {
				m.logger.Error("usbfs watch error", "error", err)
			}
		}
	}
}

func (m *monitor) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) {
		return
	}

	// A new bus directory must be watched before its devices show up.
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if err := m.watcher.Add(ev.Name); err != nil && m.logger != nil {
			m.logger.Debug("watch bus directory failed", "dir", ev.Name, "error", err)
		}
	}

	if m.logger != nil {
		m.logger.Debug("usb device node created", "path", ev.Name)
	}
	select {
	case m.pending <- struct{}{}:
	default:
	}
}

func (m *monitor) reset() {
	select {
	case <-m.pending:
	default:
	}
}

func (m *monitor) wait(ctx context.Context) error {
	select {
	case <-m.pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *monitor) close() error {
	close(m.done)
	err := m.watcher.Close()
	m.wg.Wait()
	return err
}

// poller detects arrivals by comparing bus addresses between scans.
type poller struct {
	interval time.Duration
	scan     func() (map[string]bool, error)
	logger   Logger

	known map[string]bool
}

func newPoller(interval time.Duration, scan func() (map[string]bool, error), logger Logger) *poller {
	return &poller{interval: interval, scan: scan, logger: logger}
}

func (p *poller) reset() {
	known, err := p.scan()
	if err != nil {
		if p.logger != nil {
			p.logger.Debug("bus scan failed", "error", err)
		}
		return
	}
	p.known = known
}

func (p *poller) wait(ctx context.Context) error {
	if p.known == nil {
		p.reset()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		current, err := p.scan()
		if err != nil {
			if p.logger != nil {
				p.logger.Debug("bus scan failed", "error", err)
			}
			continue
		}

		arrived := false
		for addr := range current {
			if !p.known[addr] {
				arrived = true
				break
			}
		}
		p.known = current
		if arrived {
			return nil
		}
	}
}

func (p *poller) close() error {
	return nil
}
