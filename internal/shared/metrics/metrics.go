package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	quickApplyReceivedTotal  atomic.Uint64
	quickApplyCompletedTotal atomic.Uint64
	quickApplyFailedTotal    = newLabeledCounter("stage")

	quickApplyDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000})

	trackLookupsTotal = newLabeledCounter("result")
	rateLimitedTotal  = newLabeledCounter("group")
	summaryJobsTotal  = newLabeledCounter("result")

	orphansDeletedTotal atomic.Uint64
)

// IncQuickApplyReceived counts a submission entering the pipeline.
func IncQuickApplyReceived() {
	quickApplyReceivedTotal.Add(1)
}

// IncQuickApplyCompleted counts a submission that returned a track token.
func IncQuickApplyCompleted() {
	quickApplyCompletedTotal.Add(1)
}

// IncQuickApplyFailed counts a failed submission by the stage it failed in.
func IncQuickApplyFailed(stage string) {
	quickApplyFailedTotal.Inc(stage)
}

// ObserveQuickApplyDurationMs records a submission duration in milliseconds.
func ObserveQuickApplyDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	quickApplyDuration.Observe(value)
}

// IncTrackLookup counts a track resolution by result (found, not_found, error).
func IncTrackLookup(result string) {
	trackLookupsTotal.Inc(result)
}

func IncRateLimited(group string) {
	rateLimitedTotal.Inc(group)
}

// IncSummaryJob counts summary jobs by result (completed, failed, dropped).
func IncSummaryJob(result string) {
	summaryJobsTotal.Inc(result)
}

func AddOrphansDeleted(n int) {
	if n > 0 {
		orphansDeletedTotal.Add(uint64(n))
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "quickapply_received_total", "Quick-apply submissions received", quickApplyReceivedTotal.Load())
	writeCounter(&buf, "quickapply_completed_total", "Quick-apply submissions completed", quickApplyCompletedTotal.Load())
	writeLabeledCounter(&buf, "quickapply_failed_total", "Quick-apply submissions failed by stage", quickApplyFailedTotal)
	writeHistogram(&buf, "quickapply_duration_ms", "Quick-apply submission duration in milliseconds", quickApplyDuration.Snapshot())
	writeLabeledCounter(&buf, "track_lookups_total", "Track token lookups by result", trackLookupsTotal)
	writeLabeledCounter(&buf, "rate_limited_total", "Requests rejected by the rate limiter", rateLimitedTotal)
	writeLabeledCounter(&buf, "summary_jobs_total", "Summary PDF jobs by result", summaryJobsTotal)
	writeCounter(&buf, "orphan_artifacts_deleted_total", "Unreferenced resume artifacts deleted", orphansDeletedTotal.Load())
	return buf.String()
}

type labeledCounter struct {
	label  string
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter(label string) *labeledCounter {
	return &labeledCounter{label: label, values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(value string) {
	l.mu.Lock()
	l.values[value]++
	l.mu.Unlock()
}

func (l *labeledCounter) snapshot() ([]string, map[string]uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.values))
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		keys = append(keys, k)
		out[k] = v
	}
	sort.Strings(keys)
	return keys, out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help string, c *labeledCounter) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := c.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, c.label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
