package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ai-show/backend/internal/events"
	"github.com/ai-show/backend/internal/matching"
	"github.com/ai-show/backend/pkg/queue"
)

// Sweeper periodically deactivates events past their ends_at.
type Sweeper struct {
	eventRepo *events.Repository
	interval  time.Duration
	logger    *zap.Logger
}

// NewSweeper creates an event expiry sweeper.
func NewSweeper(eventRepo *events.Repository, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{eventRepo: eventRepo, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event sweeper stopping")
			return
		case <-ticker.C:
			n, err := s.eventRepo.DeactivateExpired(ctx)
			if err != nil {
				s.logger.Warn("deactivate expired events failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("deactivated expired events", zap.Int64("count", n))
			}
		}
	}
}

// Reconciler consumes match reconciliation jobs: when an admin's hide/show
// toggle only landed on one directional row of a pair, it aligns the reverse
// row's is_hidden flag.
type Reconciler struct {
	matchRepo *matching.Repository
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewReconciler creates a reconcile job processor.
func NewReconciler(matchRepo *matching.Repository, q *queue.Queue, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{matchRepo: matchRepo, queue: q, logger: logger}
}

// Process executes one reconciliation job.
func (r *Reconciler) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMatchReconcile {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MatchReconcilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// Align the reverse direction with the toggled one.
	affected, err := r.matchRepo.SetHidden(ctx, payload.EventID, payload.MatchedParticipantID, payload.ParticipantID, payload.IsHidden)
	if err != nil {
		return fmt.Errorf("set hidden on reverse row: %w", err)
	}
	if affected == 0 {
		// Reverse row no longer exists (e.g. a recalculation replaced the
		// set since the toggle). Nothing to reconcile.
		r.logger.Info("reverse match row gone, skipping reconcile",
			zap.String("event_id", payload.EventID.String()))
		return nil
	}

	r.logger.Info("reconciled match visibility",
		zap.String("event_id", payload.EventID.String()),
		zap.String("participant_id", payload.MatchedParticipantID.String()),
		zap.String("matched_participant_id", payload.ParticipantID.String()),
		zap.Bool("is_hidden", payload.IsHidden))
	return nil
}

// Run starts the reconcile loop: dequeue, process, retry on error.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconcile worker stopping")
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := r.Process(ctx, job); err != nil {
			r.logger.Error("reconcile job failed", zap.Error(err), zap.String("job_id", job.ID))
			if retryErr := r.queue.Retry(ctx, job); retryErr != nil {
				r.logger.Error("retry failed", zap.Error(retryErr), zap.String("job_id", job.ID))
			}
		}
	}
}
