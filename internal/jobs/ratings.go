// Package jobs runs periodic maintenance in the background with robfig/cron.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RatingReconciler recomputes every chef's rating aggregate.
type RatingReconciler interface {
	ReconcileRatings(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron instance so main can stop it on shutdown.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the rating reconciliation on schedule (standard
// five-field spec or a descriptor such as @daily).  Overlapping runs are
// skipped rather than queued.
func NewScheduler(schedule string, r RatingReconciler, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	))
	if _, err := c.AddFunc(schedule, func() { reconcileOnce(r, timeout) }); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running job up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func reconcileOnce(r RatingReconciler, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	n, err := r.ReconcileRatings(ctx)
	if err != nil {
		logrus.WithError(err).Error("chef rating reconciliation failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"chefs":       n,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("chef ratings reconciled")
}

// cronLogger routes cron's own messages through logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	logrus.WithFields(kvFields(kv)).Debug("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	logrus.WithError(err).WithFields(kvFields(kv)).Error("cron: " + msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
