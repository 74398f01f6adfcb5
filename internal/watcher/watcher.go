// Package watcher notices changes to the beats log so the agent can
// rebuild the timeline without being asked.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Watcher interface {
	Watch(ctx context.Context, path string) error
	OnChange(callback func(path string, event EventType))
}

// Poller watches a file by polling its mtime and size. fsnotify-style
// OS watchers are overkill for a single slow-changing log file.
type Poller struct {
	interval time.Duration
	logger   *slog.Logger
	callback func(path string, event EventType)
}

func NewPoller(interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{interval: interval, logger: logger}
}

func (p *Poller) OnChange(callback func(path string, event EventType)) {
	p.callback = callback
}

// Watch blocks until the context is cancelled, firing the callback each
// time the file appears, changes, or disappears.
func (p *Poller) Watch(ctx context.Context, path string) error {
	p.logger.Info("watching beats file", "path", path, "interval", p.interval)

	prev, prevExists := statFile(path)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("watcher stopping", "path", path)
			return ctx.Err()
		case <-ticker.C:
			cur, curExists := statFile(path)

			switch {
			case !prevExists && curExists:
				p.fire(path, EventCreate)
			case prevExists && !curExists:
				p.fire(path, EventDelete)
			case prevExists && curExists && (cur.modTime != prev.modTime || cur.size != prev.size):
				p.fire(path, EventModify)
			}

			prev, prevExists = cur, curExists
		}
	}
}

func (p *Poller) fire(path string, event EventType) {
	p.logger.Info("beats file changed", "path", path, "event", event.String())
	if p.callback != nil {
		p.callback(path, event)
	}
}

type fileState struct {
	modTime time.Time
	size    int64
}

func statFile(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, false
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}, true
}
