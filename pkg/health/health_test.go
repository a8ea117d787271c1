package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("ok", func() Check {
		return Check{Name: "ok", Status: StatusHealthy}
	})
	c.Register("meh", func() Check {
		return Check{Name: "meh", Status: StatusDegraded}
	})

	resp := c.Check()
	if resp.Status != StatusDegraded {
		t.Errorf("Expected degraded aggregate, got %s", resp.Status)
	}

	c.Register("dead", func() Check {
		return Check{Name: "dead", Status: StatusUnhealthy}
	})
	if resp := c.Check(); resp.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy aggregate, got %s", resp.Status)
	}
}

func TestRelayCheck(t *testing.T) {
	up := RelayCheck(func(ctx context.Context) error { return nil })
	if check := up(); check.Status != StatusHealthy {
		t.Errorf("Expected healthy relay, got %s", check.Status)
	}

	down := RelayCheck(func(ctx context.Context) error { return errors.New("connection refused") })
	check := down()
	if check.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy relay, got %s", check.Status)
	}
	if check.Message == "" {
		t.Error("Expected error message surfaced")
	}
}

func TestPushStreamCheckDegradesWhenDisconnected(t *testing.T) {
	check := PushStreamCheck(func() bool { return false })()
	if check.Status != StatusDegraded {
		t.Errorf("Expected degraded push stream, got %s", check.Status)
	}

	check = PushStreamCheck(func() bool { return true })()
	if check.Status != StatusHealthy {
		t.Errorf("Expected healthy push stream, got %s", check.Status)
	}
}

func TestPollFreshnessCheck(t *testing.T) {
	fresh := PollFreshnessCheck(func() time.Time { return time.Now() }, time.Minute)()
	if fresh.Status != StatusHealthy {
		t.Errorf("Expected fresh snapshot healthy, got %s", fresh.Status)
	}

	stale := PollFreshnessCheck(func() time.Time { return time.Now().Add(-time.Hour) }, time.Minute)()
	if stale.Status != StatusUnhealthy {
		t.Errorf("Expected stale snapshot unhealthy, got %s", stale.Status)
	}

	never := PollFreshnessCheck(func() time.Time { return time.Time{} }, time.Minute)()
	if never.Status != StatusDegraded {
		t.Errorf("Expected no-poll-yet degraded, got %s", never.Status)
	}
}

func TestHTTPHandlerStatusCodes(t *testing.T) {
	c := NewChecker()
	c.Register("ok", func() Check { return Check{Name: "ok", Status: StatusHealthy} })

	rec := httptest.NewRecorder()
	c.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("Unexpected body status %s", resp.Status)
	}

	c.Register("dead", func() Check { return Check{Name: "dead", Status: StatusUnhealthy} })
	rec = httptest.NewRecorder()
	c.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
