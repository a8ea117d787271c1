package health

import (
	"context"
	"time"
)

// RelayCheck probes the relay backend with a short connections request.
func RelayCheck(ping func(ctx context.Context) error) CheckFunc {
	return func() Check {
		check := Check{Name: "relay"}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Reachable"
		}
		return check
	}
}

// PushStreamCheck reports whether the push channel is connected. A
// disconnected stream is degraded, not fatal: polling still refreshes
// state.
func PushStreamCheck(isActive func() bool) CheckFunc {
	return func() Check {
		check := Check{Name: "push_stream"}

		if isActive() {
			check.Status = StatusHealthy
			check.Message = "Connected"
		} else {
			check.Status = StatusDegraded
			check.Message = "Disconnected, falling back to polling"
		}
		return check
	}
}

// PollFreshnessCheck verifies the liveness snapshot is being refreshed.
func PollFreshnessCheck(lastSync func() time.Time, maxAge time.Duration) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "poll_freshness",
			Details: make(map[string]any),
		}

		last := lastSync()
		check.Details["last_sync"] = last

		switch {
		case last.IsZero():
			check.Status = StatusDegraded
			check.Message = "No successful poll yet"
		case time.Since(last) > maxAge:
			check.Status = StatusUnhealthy
			check.Message = "Connection snapshot is stale"
		default:
			check.Status = StatusHealthy
			check.Message = "Snapshot fresh"
		}
		return check
	}
}
