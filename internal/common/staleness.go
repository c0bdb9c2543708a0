// Package common provides shared utilities for Folio
package common

import "time"

// Refresh policy constants for oracle-sourced data
const (
	// MetricsTTL is the age beyond which a holding's slow-changing metrics
	// (dividend, P/E, 52-week range, profile) are eligible for background refresh.
	MetricsTTL = 24 * time.Hour

	// PriceSyncInterval is how often all holdings' prices are re-fetched in a
	// single batched oracle call while a portfolio view is active.
	PriceSyncInterval = 60 * time.Second

	// RefreshSpacing is the enforced pause between sequential metrics-refresh
	// calls during a staleness sweep. Self-throttling against oracle rate
	// limits — the sweep must never run concurrently.
	RefreshSpacing = 1 * time.Second
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
