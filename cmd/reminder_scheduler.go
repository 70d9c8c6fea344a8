package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// maxStartJitter spreads the first run of replicas that start together.
var maxStartJitter = 30 * time.Second

type reminderRunner interface {
	Run(ctx context.Context) (int, error)
}

func startReminderScheduler(ctx context.Context, runner reminderRunner, interval, timeout time.Duration, logger *zap.SugaredLogger) {
	if runner == nil || interval <= 0 {
		return
	}

	go func() {
		if maxStartJitter > 0 {
			jitter := time.Duration(rand.Int63n(int64(maxStartJitter)))
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter):
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			sent, err := runner.Run(runCtx)
			cancel()
			if err != nil {
				logger.Errorf("reminder scheduler: run failed: %v", err)
			} else if sent > 0 {
				logger.Infof("reminder scheduler: sent %d trial reminders", sent)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
