package probe

import (
	"context"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/okian/brandboard/pkg/logger"
)

// Latencies are recorded in milliseconds up to a minute.
const (
	minLatencyMs    = 1
	maxLatencyMs    = 60_000
	latencySigFigs  = 3
	percentileScale = 100
)

// latency is a goroutine-safe HDR histogram.
type latency struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func newLatency() *latency {
	return &latency{hist: hdrhistogram.New(minLatencyMs, maxLatencyMs, latencySigFigs)}
}

func (l *latency) record(d time.Duration) {
	ms := d.Milliseconds()
	if ms < minLatencyMs {
		ms = minLatencyMs
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.hist.RecordValue(ms)
}

// Summary is a latency distribution in milliseconds.
type Summary struct {
	Count int64
	P50   int64
	P95   int64
	P99   int64
	Max   int64
}

func (l *latency) summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summary{
		Count: l.hist.TotalCount(),
		P50:   l.hist.ValueAtQuantile(50),
		P95:   l.hist.ValueAtQuantile(95),
		P99:   l.hist.ValueAtQuantile(99),
		Max:   l.hist.Max(),
	}
}

// Report holds the outcome of a probe run.
type Report struct {
	PlacesProbed     int
	Dashboards       int
	DashboardErrors  int
	Selections       int
	SelectionsReady  int
	SelectionsFailed int
	Backpressured    int
	TimedOut         int
	Violations       []error

	Dashboard Summary // GET dashboard round trip
	Settle    Summary // PUT selection until the view leaves loading

	StartTime time.Time
	Duration  time.Duration
}

// Log writes the report through l.
func (r *Report) Log(ctx context.Context, l logger.Logger) {
	var successRate float64
	if r.Selections > 0 {
		successRate = float64(r.SelectionsReady) / float64(r.Selections) * percentileScale
	}

	l.Info(ctx, "probe finished",
		logger.Int("placesProbed", r.PlacesProbed),
		logger.Int("dashboards", r.Dashboards),
		logger.Int("dashboardErrors", r.DashboardErrors),
		logger.Int("selections", r.Selections),
		logger.Int("selectionsReady", r.SelectionsReady),
		logger.Int("selectionsFailed", r.SelectionsFailed),
		logger.Int("backpressured", r.Backpressured),
		logger.Int("timedOut", r.TimedOut),
		logger.Int("violations", len(r.Violations)),
		logger.Float64("readyRate", successRate),
		logger.Duration("duration", r.Duration))
	l.Info(ctx, "dashboard latency ms",
		logger.Any("count", r.Dashboard.Count),
		logger.Any("p50", r.Dashboard.P50),
		logger.Any("p95", r.Dashboard.P95),
		logger.Any("p99", r.Dashboard.P99),
		logger.Any("max", r.Dashboard.Max))
	l.Info(ctx, "selection settle latency ms",
		logger.Any("count", r.Settle.Count),
		logger.Any("p50", r.Settle.P50),
		logger.Any("p95", r.Settle.P95),
		logger.Any("p99", r.Settle.P99),
		logger.Any("max", r.Settle.Max))
}
