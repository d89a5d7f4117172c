package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tessera/internal/logging"
	"github.com/robfig/cron/v3"
)

// Autosaver periodically persists dirty sessions on a cron schedule.
type Autosaver struct {
	mgr     *Manager
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

func WithAutosaveLogger(l *slog.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAutosaveTimeout bounds a single autosave run. Default 30s.
func WithAutosaveTimeout(d time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAutosaver schedules SaveDirty on mgr. schedule is a standard cron
// expression or a descriptor such as "@every 30s".
func NewAutosaver(mgr *Manager, schedule string, opts ...AutosaveOption) (*Autosaver, error) {
	a := &Autosaver{
		mgr:     mgr,
		cron:    cron.New(),
		timeout: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if _, err := a.cron.AddFunc(schedule, a.Run); err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Run performs one autosave pass.
func (a *Autosaver) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	saved, err := a.mgr.SaveDirty(ctx)
	if err != nil {
		a.logger.Error("autosave failed", "saved", saved, "err", err)
		return
	}
	if saved > 0 {
		a.logger.Info("autosave completed", "saved", saved)
	}
}

// Start runs the scheduler in its own goroutine.
func (a *Autosaver) Start() {
	a.cron.Start()
}

// Stop halts the scheduler and waits for a running pass, or for ctx.
func (a *Autosaver) Stop(ctx context.Context) error {
	done := a.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
