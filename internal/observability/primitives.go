package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Minimal Prometheus text exposition. Every collector writes its own HELP and
// TYPE header followed by samples sorted by label string.

type collector interface {
	WritePrometheus(w io.Writer) error
}

func writeHeader(w io.Writer, name, help, kind string) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", name, help); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valueVec backs both labelled counters and labelled gauges.
type valueVec struct {
	name       string
	help       string
	kind       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func (v *valueVec) add(delta float64, labels []string) {
	key := labelString(v.labelNames, labels)
	v.mu.Lock()
	v.values[key] += delta
	v.mu.Unlock()
}

func (v *valueVec) set(val float64, labels []string) {
	key := labelString(v.labelNames, labels)
	v.mu.Lock()
	v.values[key] = val
	v.mu.Unlock()
}

func (v *valueVec) get(labels []string) float64 {
	key := labelString(v.labelNames, labels)
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

func (v *valueVec) WritePrometheus(w io.Writer) error {
	if err := writeHeader(w, v.name, v.help, v.kind); err != nil {
		return err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, k := range sortedKeys(v.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", v.name, k, v.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ v *valueVec }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{v: &valueVec{name: name, help: help, kind: "counter", labelNames: labels, values: map[string]float64{}}}
}

func (c *CounterVec) Inc(labels ...string) { c.Add(1, labels...) }

func (c *CounterVec) Add(delta float64, labels ...string) {
	if c == nil || delta < 0 {
		return
	}
	c.v.add(delta, labels)
}

func (c *CounterVec) Value(labels ...string) float64 {
	if c == nil {
		return 0
	}
	return c.v.get(labels)
}

func (c *CounterVec) WritePrometheus(w io.Writer) error { return c.v.WritePrometheus(w) }

type Counter struct{ v *valueVec }

func NewCounter(name, help string) *Counter {
	return &Counter{v: &valueVec{name: name, help: help, kind: "counter", values: map[string]float64{}}}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(delta float64) {
	if c == nil || delta < 0 {
		return
	}
	c.v.add(delta, nil)
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.v.get(nil)
}

func (c *Counter) WritePrometheus(w io.Writer) error { return c.v.WritePrometheus(w) }

type GaugeVec struct{ v *valueVec }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{v: &valueVec{name: name, help: help, kind: "gauge", labelNames: labels, values: map[string]float64{}}}
}

func (g *GaugeVec) Set(val float64, labels ...string) {
	if g == nil {
		return
	}
	g.v.set(val, labels)
}

func (g *GaugeVec) Add(delta float64, labels ...string) {
	if g == nil {
		return
	}
	g.v.add(delta, labels)
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error { return g.v.WritePrometheus(w) }

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.Mutex
	series     map[string]*histogram
}

type histogram struct {
	counts []uint64 // cumulative per bucket, last slot is +Inf
	sum    float64
}

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, series: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(val float64, labels ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labelNames, labels)
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[key]
	if !ok {
		s = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.series[key] = s
	}
	s.sum += val
	for i, b := range h.buckets {
		if val <= b {
			s.counts[i]++
		}
	}
	s.counts[len(h.buckets)]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range sortedKeys(h.series) {
		s := h.series[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), s.counts[i]); err != nil {
				return err
			}
		}
		total := s.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), total, h.name, k, s.sum, h.name, k, total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && strings.TrimSpace(values[i]) != "" {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabel(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(v)
}

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}
