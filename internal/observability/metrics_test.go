package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordReload(true)
	RecordReload(false)

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestSessionGaugeTracksOpenSessions(t *testing.T) {
	before := testutil.ToFloat64(sessionsActive)
	SessionOpened()
	SessionOpened()
	if got := testutil.ToFloat64(sessionsActive); got != before+2 {
		t.Fatalf("expected gauge %v, got %v", before+2, got)
	}
	closedBefore := testutil.ToFloat64(sessionsClosed.WithLabelValues(OutcomeTerminated))
	SessionClosed(OutcomeTerminated)
	SessionClosed(OutcomeTerminated)
	if got := testutil.ToFloat64(sessionsActive); got != before {
		t.Fatalf("expected gauge back to %v, got %v", before, got)
	}
	if got := testutil.ToFloat64(sessionsClosed.WithLabelValues(OutcomeTerminated)); got != closedBefore+2 {
		t.Fatalf("unexpected closed count: %v", got)
	}
}

func TestRecordQueryCountsValues(t *testing.T) {
	hits := testutil.ToFloat64(queryRequests.WithLabelValues(ResultHit))
	vals := testutil.ToFloat64(queryValues)
	RecordQuery(ResultHit, 3, time.Millisecond)
	RecordQuery(ResultMiss, 0, time.Millisecond)
	if got := testutil.ToFloat64(queryRequests.WithLabelValues(ResultHit)); got != hits+1 {
		t.Fatalf("unexpected hit count: %v", got)
	}
	if got := testutil.ToFloat64(queryValues); got != vals+3 {
		t.Fatalf("unexpected values count: %v", got)
	}
}

func TestRecordEvaluationLabels(t *testing.T) {
	before := testutil.ToFloat64(validateEvaluations.WithLabelValues("is_unique", "false"))
	RecordEvaluation("is_unique", false)
	if got := testutil.ToFloat64(validateEvaluations.WithLabelValues("is_unique", "false")); got != before+1 {
		t.Fatalf("unexpected evaluation count: %v", got)
	}
}
