package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsGateDecisions(t *testing.T) {
	r := New()
	if New() != r {
		t.Fatal("recorder should be a singleton")
	}

	before := testutil.ToFloat64(r.gateDecisions.WithLabelValues("protected", "redirect_auth"))
	r.RecordGateDecision("protected", "redirect_auth")
	r.RecordGateDecision("protected", "redirect_auth")
	after := testutil.ToFloat64(r.gateDecisions.WithLabelValues("protected", "redirect_auth"))

	if after-before != 2 {
		t.Fatalf("expected 2 increments, got %v", after-before)
	}

	r.RecordRefreshError()
	if testutil.ToFloat64(r.refreshErrors) < 1 {
		t.Fatal("refresh error not counted")
	}
}
