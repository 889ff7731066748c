// Package janitor removes scores left behind by deleted criteria. Aggregation
// already ignores them; the janitor keeps the tables from growing.
package janitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type Janitor struct {
	store    store.Store
	hermes   hermes.Client
	metrics  *metrics.Metrics
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a janitor. h and m may be nil.
func New(s store.Store, h hermes.Client, m *metrics.Metrics, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:    s,
		hermes:   h,
		metrics:  m,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.loop(ctx)
}

func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}

func (j *Janitor) loop(ctx context.Context) {
	defer j.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Purge(ctx, ""); err != nil {
				j.logger.Error("orphan sweep failed", "error", err)
			}
		}
	}
}

// Purge deletes orphaned scores for owner, or for everyone when owner is empty.
func (j *Janitor) Purge(ctx context.Context, owner string) (int64, error) {
	n, err := j.store.DeleteOrphanScores(ctx, owner)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	j.logger.Info("purged orphan scores", "owner", owner, "removed", n)
	j.metrics.OrphansPurged(n)
	if j.hermes != nil {
		evt := hermes.OrphansPurgedEvent{Owner: owner, Removed: n, At: time.Now().UTC()}
		if err := j.hermes.Publish(hermes.SubjectOrphansPurged, evt); err != nil {
			j.logger.Warn("failed to publish purge event", "error", err)
		}
	}
	return n, nil
}

// SetupSubscriptions purges an owner's orphans as soon as one of their
// criteria is deleted instead of waiting for the next tick.
func (j *Janitor) SetupSubscriptions() {
	if j.hermes == nil {
		return
	}

	err := j.hermes.Subscribe(hermes.SubjectCriteriaDeleted, func(subject string, data []byte) {
		var evt hermes.CriterionEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			j.logger.Warn("invalid criterion event", "subject", subject, "error", err)
			return
		}
		if evt.Owner == "" {
			return
		}
		if _, err := j.Purge(context.Background(), evt.Owner); err != nil {
			j.logger.Error("orphan purge after delete failed", "owner", evt.Owner, "error", err)
		}
	})
	if err != nil {
		j.logger.Warn("purge on criterion delete disabled, relying on the sweep", "subject", hermes.SubjectCriteriaDeleted, "error", err)
	}
}
