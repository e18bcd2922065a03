package healthid

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.generated(modeSingle)
	m.observeCheck(Existence{Result: ResultTimeout})
	m.exhausted()
	m.batchCollision()
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.observeCheck(Existence{Result: ResultTimeout, Elapsed: 1200 * time.Millisecond})

	if got := testutil.ToFloat64(m.ExistenceChecks.WithLabelValues("timeout")); got != 1 {
		t.Errorf("expected 1 timeout check, got %v", got)
	}
	n, err := testutil.GatherAndCount(reg, "healthid_existence_check_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("expected histogram to be registered, got %d series", n)
	}
}
