package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs a Sweeper on a fixed interval using gocron, the same
// scheduling library the retrieval pack's publish-queue service uses for
// its own periodic job.
type Scheduler struct {
	sched gocron.Scheduler
}

// StartSweeping creates and starts a gocron scheduler that calls
// sweeper.Sweep once per interval. Call Stop to shut it down.
func StartSweeping(ctx context.Context, sweeper *Sweeper, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := sweeper.Sweep(ctx); err != nil {
				logger.Error("outbox sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return &Scheduler{sched: sched}, nil
}

// Stop shuts the scheduler down, waiting for any in-flight sweep to finish.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
