package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/reservation-queue-go/features/command/expireoverdue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

type expireHandler interface {
	Handle(ctx context.Context, command expireoverdue.Command) (shell.HandlerResult, error)
}

// Sweeper runs ExpireOverdue for a fixed set of queues.
type Sweeper struct {
	handler     expireHandler
	clock       shell.Clock
	logger      *slog.Logger
	resourceIDs []uuid.UUID
	concurrency int
}

// SweepReport sums up one pass over all queues.
type SweepReport struct {
	Swept         int
	Changed       int
	Notifications int
	Failed        int
	Idempotent    int
}

func (r *SweepReport) add(result shell.HandlerResult, failed bool) {
	r.Swept++

	switch {
	case failed:
		r.Failed++
	case result.Idempotent:
		r.Idempotent++
	default:
		r.Changed++
		r.Notifications += result.Notifications
	}
}

// NewSweeper creates a Sweeper for resourceIDs that works on at most concurrency queues at a time.
func NewSweeper(
	handler expireHandler,
	clock shell.Clock,
	logger *slog.Logger,
	resourceIDs []uuid.UUID,
	concurrency int,
) *Sweeper {

	return &Sweeper{
		handler:     handler,
		clock:       clock,
		logger:      logger,
		resourceIDs: resourceIDs,
		concurrency: max(concurrency, 1),
	}
}

// SweepOnce expires overdue heads of every queue. A failing queue does not stop the pass.
func (s *Sweeper) SweepOnce(ctx context.Context) SweepReport {
	var (
		mu     sync.Mutex
		report SweepReport
	)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, resourceID := range s.resourceIDs {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			result, failed := s.sweep(ctx, resourceID)

			mu.Lock()
			defer mu.Unlock()

			report.add(result, failed)

			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	return report
}

func (s *Sweeper) sweep(ctx context.Context, resourceID uuid.UUID) (shell.HandlerResult, bool) {
	result, err := s.handler.Handle(ctx, expireoverdue.BuildCommand(resourceID, s.clock.Now()))

	switch {
	case err == nil:
		return result, false
	case result.Notifications == 0:
		s.logger.ErrorContext(ctx, "sweep failed",
			shell.LogAttrResourceID, resourceID.String(),
			shell.LogAttrError, err.Error(),
		)

		return result, true
	default:
		s.logger.WarnContext(ctx, "sweep committed but publishing failed",
			shell.LogAttrResourceID, resourceID.String(),
			shell.LogAttrError, err.Error(),
		)

		return result, false
	}
}

// Run sweeps immediately and then on every tick until ctx ends.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.logReport(ctx, s.SweepOnce(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logReport(ctx, s.SweepOnce(ctx))
		}
	}
}

func (s *Sweeper) logReport(ctx context.Context, report SweepReport) {
	s.logger.InfoContext(ctx, "sweep finished",
		"swept", report.Swept,
		"changed", report.Changed,
		"notifications", report.Notifications,
		"idempotent", report.Idempotent,
		"failed", report.Failed,
	)
}
