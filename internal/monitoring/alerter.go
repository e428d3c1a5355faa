package monitoring

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AlertType identifies the kind of alert.
type AlertType string

// Alert types.
const (
	AlertLookupFailureRate AlertType = "lookup_failure_rate"
	AlertBreakerOpen       AlertType = "breaker_open"
	AlertOrphanedCache     AlertType = "orphaned_cache"
)

// minLookupsForRate is the sample size below which the failure rate is not
// evaluated.
const minLookupsForRate = 5

// Alert is a single threshold breach.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against thresholds.
type Alerter struct {
	failureRateThreshold float64
}

// NewAlerter creates an Alerter. A non-positive threshold defaults to 0.5.
func NewAlerter(failureRateThreshold float64) *Alerter {
	if failureRateThreshold <= 0 {
		failureRateThreshold = 0.5
	}
	return &Alerter{failureRateThreshold: failureRateThreshold}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Lookups >= minLookupsForRate && snap.LookupFailureRate > a.failureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertLookupFailureRate,
			Severity: "high",
			Message: fmt.Sprintf("lookup failure rate %.1f%% exceeds threshold %.1f%% (%d of %d)",
				snap.LookupFailureRate*100, a.failureRateThreshold*100, snap.LookupFailures, snap.Lookups),
			Details: map[string]any{
				"failure_rate": snap.LookupFailureRate,
				"threshold":    a.failureRateThreshold,
			},
			Timestamp: now,
		})
	}

	for _, name := range snap.OpenBreakers() {
		alerts = append(alerts, Alert{
			Type:      AlertBreakerOpen,
			Severity:  "medium",
			Message:   fmt.Sprintf("%s breaker is %s", name, snap.Breakers[name]),
			Details:   map[string]any{"provider": name},
			Timestamp: now,
		})
	}

	// Every cached polygon or profile belongs to a distinct live link.
	if snap.Graph.Polygons > snap.Graph.Links || snap.Graph.Elevations > snap.Graph.Links {
		alerts = append(alerts, Alert{
			Type:     AlertOrphanedCache,
			Severity: "high",
			Message: fmt.Sprintf("derived caches exceed link count (links=%d polygons=%d elevations=%d)",
				snap.Graph.Links, snap.Graph.Polygons, snap.Graph.Elevations),
			Timestamp: now,
		})
	}

	return alerts
}

// Log writes alerts to the logger.
func (a *Alerter) Log(log *zap.Logger, alerts []Alert) {
	for _, al := range alerts {
		log.Warn("monitoring: alert",
			zap.String("type", string(al.Type)),
			zap.String("severity", al.Severity),
			zap.String("message", al.Message),
		)
	}
}
