package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler is implemented by *store.Graph.
type Reconciler interface {
	ReconcileDerivedCaches() int
}

// Checker runs the consistency sweep and alert checks in the background.
type Checker struct {
	collector  *Collector
	alerter    *Alerter
	reconciler Reconciler
	interval   time.Duration
}

// NewChecker creates a background checker. reconciler may be nil.
func NewChecker(collector *Collector, alerter *Alerter, reconciler Reconciler, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Checker{
		collector:  collector,
		alerter:    alerter,
		reconciler: reconciler,
		interval:   interval,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting checker", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("checker stopped")
			return
		case <-ticker.C:
			c.Check(log)
		}
	}
}

// Check runs one sweep and returns the alerts raised.
func (c *Checker) Check(log *zap.Logger) []Alert {
	if c.reconciler != nil {
		if n := c.reconciler.ReconcileDerivedCaches(); n > 0 {
			log.Warn("monitoring: evicted orphaned cache entries", zap.Int("evicted", n))
		}
	}

	alerts := c.alerter.Evaluate(c.collector.Collect())
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return nil
	}
	c.alerter.Log(log, alerts)
	return alerts
}
