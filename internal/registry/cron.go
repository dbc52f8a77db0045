package registry

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/vecthare/vecthare/internal/logger"
)

// Scheduler runs discovery sweeps on startup and on a recurring schedule
// (spec §4.6: "on startup and on demand"). "On demand" is Sweep called
// directly by a caller (e.g. the httpapi registry endpoint); Scheduler
// covers the recurring half.
type Scheduler struct {
	cron       *cron.Cron
	reg        *Registry
	discoverer Discoverer
}

// NewScheduler builds a Scheduler. The schedule is passed to Start as
// spec: a standard cron expression or a descriptor such as "@every 5m";
// robfig/cron's parser accepts both.
func NewScheduler(reg *Registry, discoverer Discoverer) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reg:        reg,
		discoverer: discoverer,
	}
}

// Start runs an immediate sweep, schedules recurring sweeps at spec, and
// starts the cron runner. Returns an error only if spec fails to parse.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if err := Sweep(ctx, s.reg, s.discoverer); err != nil {
		logger.Warnf(ctx, "registry: startup sweep failed: %v", err)
	}

	_, err := s.cron.AddFunc(spec, func() {
		if err := Sweep(ctx, s.reg, s.discoverer); err != nil {
			logger.Errorf(ctx, "registry: scheduled sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner, waiting for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
