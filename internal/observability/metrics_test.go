package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWritePrometheusIncludesAdPackSeries(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/variants/:id/winner", "200", 40*time.Millisecond)
	m.ObserveShotRender("fast", "hook", "success", 2*time.Second)
	m.IncVariantTransition("shots_ready")
	m.IncLedgerSoftFailure("proof")
	m.ObserveAggregateOperation("AdPack.Winner.MarkWinner", "conflict", time.Millisecond)
	m.IncAggregateConflict("AdPack.Winner.MarkWinner")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`adpack_api_requests_total{method="POST",route="/api/variants/:id/winner",status="200"} 1`,
		`adpack_shots_rendered_total{tier="fast",shot_type="hook",status="success"} 1`,
		`adpack_variant_transitions_total{status="shots_ready"} 1`,
		`adpack_ledger_soft_failures_total{shot_type="proof"} 1`,
		`adpack_aggregate_conflicts_total{operation="AdPack.Winner.MarkWinner"} 1`,
		`adpack_shot_render_duration_seconds_bucket{tier="fast",status="success",le="2"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing series %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncWinnerRetry()
	m.ApiInflightInc()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestEscapeLabel(t *testing.T) {
	got := labelString([]string{"a"}, []string{"x\"y\\z\n"})
	if got != `{a="x\"y\\z\n"}` {
		t.Fatalf("labelString: %s", got)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("shot_seconds", "test", []string{"tier"}, []float64{1, 5})
	h.Observe(0.5, "fast")
	h.Observe(3, "fast")
	h.Observe(9, "fast")

	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	for _, want := range []string{
		`shot_seconds_bucket{tier="fast",le="1"} 1`,
		`shot_seconds_bucket{tier="fast",le="5"} 2`,
		`shot_seconds_bucket{tier="fast",le="+Inf"} 3`,
		`shot_seconds_sum{tier="fast"} 12.5`,
		`shot_seconds_count{tier="fast"} 3`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestCounterValues(t *testing.T) {
	c := NewCounterVec("events", "test", []string{"type"})
	c.Inc("variant.updated")
	c.Add(2, "variant.updated")
	c.Add(-1, "variant.updated")
	if got := c.Value("variant.updated"); got != 3 {
		t.Fatalf("vec value: %v", got)
	}
	plain := NewCounter("retries", "test")
	plain.Inc()
	if plain.Value() != 1 {
		t.Fatalf("counter value: %v", plain.Value())
	}
	g := NewGauge("inflight", "test")
	g.Inc()
	g.Inc()
	g.Dec()
	var buf bytes.Buffer
	_ = g.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), "inflight 1\n") {
		t.Fatalf("gauge output: %s", buf.String())
	}
}
