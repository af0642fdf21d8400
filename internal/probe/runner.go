// Package probe drives a running dashboard server over HTTP and checks the
// aggregation invariants of every view it receives.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/okian/brandboard/pkg/logger"
)

// ErrViolations is returned when any view broke an invariant.
var ErrViolations = errors.New("invariant violations found")

// runner carries the shared state of one probe run.
type runner struct {
	cfg    *Config
	logger logger.Logger

	mu     sync.Mutex
	report *Report

	dashboard *latency
	settle    *latency
}

// Run executes the probe and returns its report. The error is non-nil when
// the service is unreachable or any invariant was violated.
func Run(ctx context.Context, cfg *Config, l logger.Logger) (*Report, error) {
	r := &runner{
		cfg:       cfg,
		logger:    l,
		report:    &Report{StartTime: time.Now()},
		dashboard: newLatency(),
		settle:    newLatency(),
	}

	l.Info(ctx, "starting dashboard probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Int("viewers", cfg.Viewers),
		logger.Int("rounds", cfg.Rounds),
		logger.Duration("timeout", cfg.Timeout))

	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := r.checkHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	places, err := r.places(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("place search failed: %w", err)
	}
	r.report.PlacesProbed = len(places)

	r.probeDashboards(ctx, client, places)
	r.probeSelections(ctx, places)

	r.report.Dashboard = r.dashboard.summary()
	r.report.Settle = r.settle.summary()
	r.report.Duration = time.Since(r.report.StartTime)

	if len(r.report.Violations) > 0 {
		return r.report, fmt.Errorf("probe.Run: %w: %d", ErrViolations, len(r.report.Violations))
	}
	return r.report, nil
}

func (r *runner) checkHealth(ctx context.Context, c *httpClient) error {
	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return err
	}
	r.logger.Info(ctx, "service is healthy")
	return nil
}

func (r *runner) places(ctx context.Context, c *httpClient) ([]Place, error) {
	var resp placesResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/places", nil, &resp); err != nil {
		return nil, err
	}
	places := resp.Places
	if r.cfg.Places > 0 && len(places) > r.cfg.Places {
		places = places[:r.cfg.Places]
	}
	r.logger.Info(ctx, "places found", logger.Int("count", len(places)))
	return places, nil
}

// probeDashboards fetches every place at every granularity with a worker pool.
func (r *runner) probeDashboards(ctx context.Context, c *httpClient, places []Place) {
	type job struct {
		placeID     string
		granularity string
	}
	jobs := make(chan job, r.cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				path := "/api/places/" + url.PathEscape(j.placeID) + "/dashboard?granularity=" + j.granularity
				start := time.Now()
				var v View
				_, err := c.do(ctx, http.MethodGet, path, nil, &v)
				r.dashboard.record(time.Since(start))

				r.mu.Lock()
				r.report.Dashboards++
				if err != nil {
					r.report.DashboardErrors++
					r.mu.Unlock()
					r.logger.Warn(ctx, "dashboard request failed", logger.String("place_id", j.placeID), logger.Error(err))
					continue
				}
				r.mu.Unlock()
				r.check(ctx, v)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range places {
			for _, g := range granularities {
				select {
				case <-ctx.Done():
					return
				case jobs <- job{placeID: p.ID, granularity: g}:
				}
			}
		}
	}()

	wg.Wait()
}

// probeSelections runs the select-then-poll flow for each simulated viewer.
// Viewers switch places quickly so superseded loads are exercised too.
func (r *runner) probeSelections(ctx context.Context, places []Place) {
	if len(places) == 0 || r.cfg.Viewers <= 0 {
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Viewers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			c, err := newHTTPClient(r.cfg)
			if err != nil {
				return
			}
			rng := rand.New(rand.NewSource(seed))
			for round := 0; round < r.cfg.Rounds && ctx.Err() == nil; round++ {
				// A quick extra selection that the next one supersedes.
				if round%2 == 1 {
					_, _ = c.do(ctx, http.MethodPut, "/api/selection", map[string]string{"place_id": places[rng.Intn(len(places))].ID}, nil)
				}
				r.selectOnce(ctx, c, places[rng.Intn(len(places))].ID, granularities[rng.Intn(len(granularities))])
			}
		}(int64(i) + 1)
	}
	wg.Wait()
}

func (r *runner) selectOnce(ctx context.Context, c *httpClient, placeID, granularity string) {
	start := time.Now()

	var t ticket
	status, err := c.do(ctx, http.MethodPut, "/api/selection", map[string]string{"place_id": placeID}, &t)
	r.mu.Lock()
	r.report.Selections++
	r.mu.Unlock()
	if err != nil {
		r.mu.Lock()
		if status == http.StatusTooManyRequests {
			r.report.Backpressured++
		} else {
			r.report.SelectionsFailed++
		}
		r.mu.Unlock()
		return
	}

	deadline := time.Now().Add(r.cfg.PollTimeout)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		var v View
		if _, err := c.do(ctx, http.MethodGet, "/api/selection?granularity="+granularity, nil, &v); err != nil {
			r.mu.Lock()
			r.report.SelectionsFailed++
			r.mu.Unlock()
			return
		}

		if v.Generation > t.Generation {
			r.addViolation(ctx, fmt.Errorf("viewer saw generation %d after selecting %d", v.Generation, t.Generation))
			return
		}
		if v.State != "loading" {
			r.settle.record(time.Since(start))
			if v.PlaceID != placeID || v.Generation != t.Generation {
				r.addViolation(ctx, fmt.Errorf("selection settled on %s/%d, want %s/%d", v.PlaceID, v.Generation, placeID, t.Generation))
				return
			}
			r.mu.Lock()
			if v.State == "failed" {
				r.report.SelectionsFailed++
			} else {
				r.report.SelectionsReady++
			}
			r.mu.Unlock()
			r.check(ctx, v)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.PollInterval):
		}
	}

	r.mu.Lock()
	r.report.TimedOut++
	r.mu.Unlock()
}

func (r *runner) check(ctx context.Context, v View) {
	for _, err := range Verify(v) {
		r.addViolation(ctx, err)
	}
}

func (r *runner) addViolation(ctx context.Context, err error) {
	r.mu.Lock()
	r.report.Violations = append(r.report.Violations, err)
	r.mu.Unlock()
	if r.cfg.Verbose {
		r.logger.Warn(ctx, "invariant violated", logger.Error(err))
	}
}
