// Package poller drives the periodic REST synchronization: account
// activities, position snapshots, and account state, paced by market hours.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/market"
	"github.com/meridian-trading/meridian/internal/types"
)

// Controller is the coordinator surface the poller drives. Every remote pull
// runs inside the coordinator's consumer loop.
type Controller interface {
	LoadSettings() (types.Settings, error)
	SyncActivities() error
	SyncPositions() error
	SyncAccount() error
}

// Config holds the polling cadence.
type Config struct {
	OpenInterval   time.Duration
	ClosedInterval time.Duration
	ExtendedHours  bool
}

// Poller runs the market-hours-aware polling loop.
type Poller struct {
	controller Controller
	calendar   market.Calendar
	config     Config
	logger     *logger.Logger
	now        func() time.Time
}

// New creates a poller against the given controller and calendar.
func New(controller Controller, calendar market.Calendar, cfg Config, log *logger.Logger) *Poller {
	return &Poller{
		controller: controller,
		calendar:   calendar,
		config:     cfg,
		logger:     log.Named("poller"),
		now:        time.Now,
	}
}

// Run polls until ctx is done. The interval is re-evaluated every tick so
// the cadence follows the market session.
func (p *Poller) Run(ctx context.Context) {
	for {
		p.tick()

		interval := market.PollInterval(
			p.now(), p.calendar, p.config.ExtendedHours,
			p.config.OpenInterval, p.config.ClosedInterval,
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick runs one poll pass. Sub-step failures are logged and never abort the
// remaining steps or the loop.
func (p *Poller) tick() {
	if _, err := p.controller.LoadSettings(); err != nil {
		p.logger.Error("settings reload failed", zap.Error(err))
	}

	if err := p.controller.SyncActivities(); err != nil {
		p.logger.Error("activity sync failed", zap.Error(err))
	}

	if err := p.controller.SyncPositions(); err != nil {
		p.logger.Error("position sync failed", zap.Error(err))
	}

	if err := p.controller.SyncAccount(); err != nil {
		p.logger.Error("account sync failed", zap.Error(err))
	}
}
