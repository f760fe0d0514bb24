// Package daemon runs the periodic calendar refresh on a cron
// schedule.
package daemon

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/internal/holiday"
)

// Daemon schedules engine refreshes. At most one refresh runs at a
// time; a tick arriving while a refresh is in flight is skipped.
type Daemon struct {
	engine         *holiday.Engine
	schedule       string
	staleAfterDays int
	logger         *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a daemon refreshing the given engine on the given cron
// schedule.
func New(engine *holiday.Engine, schedule string, staleAfterDays int, logger *zap.Logger) *Daemon {
	return &Daemon{
		engine:         engine,
		schedule:       schedule,
		staleAfterDays: staleAfterDays,
		logger:         logger,
	}
}

// Run starts the schedule, performs one immediate refresh, and blocks
// until SIGINT or SIGTERM.
func (d *Daemon) Run() error {
	c := cron.New()
	if _, err := c.AddFunc(d.schedule, d.refresh); err != nil {
		return err
	}

	d.logger.Info("Daemon started",
		zap.String("schedule", d.schedule),
		zap.Int("stale_after_days", d.staleAfterDays))

	// Initial refresh so a fresh install serves data right away.
	go d.refresh()

	c.Start()
	defer c.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	d.logger.Info("Received signal, shutting down",
		zap.String("signal", sig.String()))
	return nil
}

func (d *Daemon) refresh() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn("Refresh already running, skipping tick")
		return
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info("Running scheduled refresh")
	d.engine.Refresh(d.staleAfterDays)
}
