package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brainstem-ai/brainstem/internal/logging"
)

// Submit delivers one nudge prompt into the turn pipeline.
type Submit func(ctx context.Context, prompt string) error

// Service fires enabled nudges on their cron schedules.
type Service struct {
	store   *Store
	submit  Submit
	cron    *cron.Cron
	started bool
}

// NewService creates a cron-backed nudge service.
func NewService(store *Store, submit Submit) *Service {
	return &Service{
		store:  store,
		submit: submit,
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start registers enabled nudges and starts cron execution.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return errors.New("scheduler already started")
	}
	if s.submit == nil {
		return errors.New("scheduler submit function is required")
	}

	nudges, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	registered := 0
	for _, nudge := range nudges {
		if !nudge.Enabled {
			continue
		}
		nudge := nudge
		_, err := s.cron.AddFunc(nudge.Cron, func() {
			if err := s.submit(ctx, nudge.Prompt); err != nil {
				logging.Logger().Warn("nudge failed", "nudge_id", nudge.ID, "err", err)
				return
			}
			logging.Logger().Info("nudge submitted", "nudge_id", nudge.ID)
		})
		if err != nil {
			return fmt.Errorf("register nudge %q: %w", nudge.ID, err)
		}
		registered++
	}

	s.cron.Start()
	s.started = true
	logging.Logger().Info("scheduler started", "nudges_registered", registered)
	return nil
}

// Stop halts cron and waits for in-flight callbacks up to ctx cancellation.
func (s *Service) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}
	s.started = false

	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
