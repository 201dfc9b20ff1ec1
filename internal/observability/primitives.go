package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Metric primitives rendered in the Prometheus text exposition format.

type family struct {
	name   string
	help   string
	kind   string
	labels []string
}

func (f family) writeHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
	return err
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// valueVec backs CounterVec and GaugeVec.
type valueVec struct {
	family
	mu   sync.Mutex
	vals map[string]float64
}

func newValueVec(name, help, kind string, labels []string) valueVec {
	return valueVec{family: family{name: name, help: help, kind: kind, labels: labels}, vals: map[string]float64{}}
}

func (v *valueVec) apply(fn func(float64) float64, values []string) {
	key := labelString(v.labels, values)
	v.mu.Lock()
	v.vals[key] = fn(v.vals[key])
	v.mu.Unlock()
}

func (v *valueVec) get(values []string) float64 {
	key := labelString(v.labels, values)
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vals[key]
}

func (v *valueVec) WritePrometheus(w io.Writer) error {
	if err := v.writeHeader(w); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, k := range sortedKeys(v.vals) {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", v.name, k, formatValue(v.vals[k])); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ valueVec }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newValueVec(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(delta float64, values ...string) {
	if c == nil || delta < 0 {
		return
	}
	c.apply(func(cur float64) float64 { return cur + delta }, values)
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.get(values)
}

type GaugeVec struct{ valueVec }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newValueVec(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.apply(func(float64) float64 { return v }, values)
}

// Counter and Gauge are unlabeled series.
type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter { return &Counter{vec: NewCounterVec(name, help, nil)} }

func (c *Counter) Inc() {
	if c != nil {
		c.vec.Inc()
	}
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.Value()
}

func (c *Counter) WritePrometheus(w io.Writer) error { return c.vec.WritePrometheus(w) }

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge { return &Gauge{vec: NewGaugeVec(name, help, nil)} }

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Inc() { g.add(1) }
func (g *Gauge) Dec() { g.add(-1) }

func (g *Gauge) add(delta float64) {
	if g != nil {
		g.vec.apply(func(cur float64) float64 { return cur + delta }, nil)
	}
}

func (g *Gauge) WritePrometheus(w io.Writer) error { return g.vec.WritePrometheus(w) }

type HistogramVec struct {
	family
	bounds []float64
	mu     sync.Mutex
	series map[string]*histogram
}

// histogram keeps per-bucket (non-cumulative) counts; the +Inf bucket is total.
type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, bounds []float64) *HistogramVec {
	if len(bounds) == 0 {
		bounds = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{
		family: family{name: name, help: help, kind: "histogram", labels: labels},
		bounds: bounds,
		series: map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.series[key]
	if s == nil {
		s = &histogram{counts: make([]uint64, len(h.bounds))}
		h.series[key] = s
	}
	s.sum += v
	s.total++
	if i := sort.SearchFloat64s(h.bounds, v); i < len(h.bounds) {
		s.counts[i]++
	}
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.writeHeader(w); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range sortedKeys(h.series) {
		s := h.series[k]
		var cumulative uint64
		for i, b := range h.bounds {
			cumulative += s.counts[i]
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, formatValue(b)), cumulative); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %s\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), s.total,
			h.name, k, formatValue(s.sum),
			h.name, k, s.total); err != nil {
			return err
		}
	}
	return nil
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// labelString renders {a="x",b="y"}; missing values render as "unknown".
func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + labelEscaper.Replace(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
