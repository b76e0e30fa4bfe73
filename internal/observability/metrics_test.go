package observability

import (
	"testing"
	"time"
)

func TestMetricsCountsByKey(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("api/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("api/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("api/users/profile", "GET", 401, time.Millisecond)
	m.RecordError("api/users/profile", "GET", "UNAUTHORIZED")

	requests := m.Requests()
	if len(requests) != 2 {
		t.Fatalf("expected 2 request counters, got %d", len(requests))
	}
	if requests[0].Key != "api/tickets|GET|200" || requests[0].Count != 2 {
		t.Fatalf("unexpected first counter %+v", requests[0])
	}
	errs := m.Errors()
	if len(errs) != 1 || errs[0].Count != 1 {
		t.Fatalf("unexpected error counters %+v", errs)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("x", "GET", 200, 0)
	m.RecordError("x", "GET", "E")
	if m.Requests() != nil || m.Errors() != nil {
		t.Fatal("nil metrics should report nothing")
	}
}
