package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stale-cleaner/internal/config"
	"stale-cleaner/internal/metrics"
	"stale-cleaner/internal/prune"
	"stale-cleaner/internal/safety"
)

// RunOnce cleans every configured target once. A failing target does not
// stop the others; all failures are returned joined.
func RunOnce(ctx context.Context, cfg *config.Config, logger *log.Logger, rec prune.Recorder) error {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		return errors.New("nil config")
	}

	metrics.Init()
	metrics.RecordCleanupRun(time.Now())

	pruner := prune.NewPruner(logger, rec)
	pruner.SetMarker(cfg.Marker)
	pruner.SetValidator(safety.NewValidator(cfg.ProtectedPaths))

	var errs []error
	var total prune.Stats
	for _, target := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		st, err := pruner.Clean(target.Path, target.Age.Duration())
		total.FilesDeleted += st.FilesDeleted
		total.DirsDeleted += st.DirsDeleted
		total.BytesFreed += st.BytesFreed
		if err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target.Path, err))
		}
	}

	logger.Printf("cycle complete: targets=%d files_deleted=%d dirs_deleted=%d freed=%d bytes errors=%d",
		len(cfg.Targets), total.FilesDeleted, total.DirsDeleted, total.BytesFreed, len(errs))
	return errors.Join(errs...)
}

// Run cleans immediately, then on every interval tick or trigger until ctx is done
func Run(ctx context.Context, cfg *config.Config, logger *log.Logger, rec prune.Recorder, trigger <-chan struct{}) error {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		return errors.New("nil config")
	}

	if err := RunOnce(ctx, cfg, logger, rec); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Printf("error running cycle: %v", err)
	}

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
		case <-trigger:
			logger.Println("cleanup triggered")
		}

		if err := RunOnce(ctx, cfg, logger, rec); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Printf("error running cycle: %v", err)
		}
	}
}
