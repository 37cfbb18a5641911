package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds one run of any background job
const jobTimeout = 10 * time.Minute

// Runner schedules background jobs on cron specs. Jobs run one at a
// time per entry; a run that overlaps its next tick is skipped by the
// cron library.
type Runner struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewRunner creates a job runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register adds a job under the given cron spec. The job gets a
// bounded context; failures are logged, never fatal.
func (r *Runner) Register(name, spec string, fn func(ctx context.Context) error) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			r.logger.Error("Background job failed",
				zap.String("job", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		r.logger.Debug("Background job completed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	if err != nil {
		return err
	}

	r.logger.Info("Background job registered",
		zap.String("job", name),
		zap.String("spec", spec),
	)
	return nil
}

// Start begins dispatching jobs
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops dispatching and waits for in-flight jobs to finish
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Job runner stopped")
}
