package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Source delivers the hourly forecast of one model for one location.
type Source interface {
	FetchHourly(ctx context.Context, loc domain.Location, model domain.Model, days int) (domain.HourlyTable, error)
}

// Sink consumes the fused report of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, report domain.Report) error
}

// RunConfig is the set of locations, models and limits for one run.
type RunConfig struct {
	Locations   []domain.Location
	Models      []domain.Model
	Days        int
	Concurrency int
	UnitTimeout time.Duration
}

// Pipeline fans out fetch and summarization over every (location, model)
// unit, fuses the collected rows and hands the report to the sinks.
type Pipeline struct {
	source  Source
	sinks   []Sink
	cfg     RunConfig
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	latest  atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given source, sinks and observability.
func New(source Source, sinks []Sink, cfg RunConfig, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		source:  source,
		sinks:   sinks,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has produced a report and every sink
// accepted it.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no run has completed yet")
	}
	return nil
}

// LatestReport returns the report of the most recent run that produced one.
func (p *Pipeline) LatestReport() (domain.Report, bool) {
	r := p.latest.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

type unit struct {
	location domain.Location
	model    domain.Model
}

type unitResult struct {
	status domain.UnitStatus
	rows   []domain.ModelDaypartSummary
}

// Run executes one batch: fetch and summarize every unit, wait for all of
// them, fuse, and write the report to every sink. A run in which no unit
// produced rows fails with *domain.EmptyResultError and writes nothing. Sink
// failures are joined and returned together with the report.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() { p.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	units := p.units()
	p.logger.Info("run started",
		"locations", len(p.cfg.Locations),
		"models", len(p.cfg.Models),
		"days", p.cfg.Days,
		"concurrency", p.cfg.Concurrency,
	)

	// Each worker owns one slot of results, so the barrier below is the only
	// synchronization needed.
	results := make([]unitResult, len(units))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, u := range units {
		g.Go(func() error {
			results[i] = p.runUnit(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}

	statuses := make([]domain.UnitStatus, len(results))
	var rows []domain.ModelDaypartSummary
	usable := 0
	for i, r := range results {
		statuses[i] = r.status
		if r.status.Outcome == domain.UnitOK {
			usable++
			rows = append(rows, r.rows...)
		}
	}
	if usable == 0 {
		err := &domain.EmptyResultError{Attempted: len(units)}
		p.logger.Error("run produced no usable data", "error", err)
		return domain.Report{}, err
	}

	fused := domain.Fuse(rows)
	report := domain.NewReport(p.cfg.Days, p.cfg.Locations, p.cfg.Models, statuses, fused)
	p.latest.Store(&report)
	p.metrics.EnsembleRows.Set(float64(len(fused)))

	err := p.writeSinks(ctx, report)
	p.ready.Store(err == nil)
	if err == nil {
		p.metrics.LastSuccessTimestamp.Set(float64(report.GeneratedAt.Unix()))
	}

	p.logger.Info("run finished",
		"units_ok", usable,
		"units_total", len(units),
		"ensemble_rows", len(fused),
		"duration", time.Since(start),
	)
	return report, err
}

func (p *Pipeline) units() []unit {
	out := make([]unit, 0, len(p.cfg.Locations)*len(p.cfg.Models))
	for _, loc := range p.cfg.Locations {
		for _, m := range p.cfg.Models {
			out = append(out, unit{location: loc, model: m})
		}
	}
	return out
}

// runUnit fetches and summarizes one unit. Failures are recorded in the
// returned status rather than propagated.
func (p *Pipeline) runUnit(ctx context.Context, u unit) unitResult {
	fetchCtx := ctx
	if p.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.UnitTimeout)
		defer cancel()
	}

	start := time.Now()
	table, err := p.source.FetchHourly(fetchCtx, u.location, u.model, p.cfg.Days)
	p.metrics.FetchDuration.WithLabelValues(u.model.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		return p.skip(u, domain.UnitFetchFailed, &domain.FetchError{
			Location: u.location.Name,
			Model:    u.model.Name,
			Err:      err,
		})
	}

	rows, err := domain.SummarizeDayparts(u.location.Name, u.model.Name, table)
	if err != nil {
		return p.skip(u, domain.UnitMalformed, fmt.Errorf("%s/%s: %w", u.location.Name, u.model.Name, err))
	}
	if len(rows) == 0 {
		return p.skip(u, domain.UnitEmpty, errors.New("no hourly records"))
	}

	p.metrics.Units.WithLabelValues(string(domain.UnitOK)).Inc()
	p.metrics.ModelSummaries.Add(float64(len(rows)))
	p.logger.Info("unit summarized",
		"location", u.location.Name,
		"model", u.model.Name,
		"summaries", len(rows),
	)
	return unitResult{
		status: domain.UnitStatus{
			Location:  u.location.Name,
			Model:     u.model.Name,
			Outcome:   domain.UnitOK,
			Summaries: len(rows),
		},
		rows: rows,
	}
}

func (p *Pipeline) skip(u unit, outcome domain.UnitOutcome, err error) unitResult {
	p.metrics.Units.WithLabelValues(string(outcome)).Inc()
	p.logger.Warn("unit skipped",
		"location", u.location.Name,
		"model", u.model.Name,
		"outcome", outcome,
		"error", err,
	)
	return unitResult{
		status: domain.UnitStatus{
			Location: u.location.Name,
			Model:    u.model.Name,
			Outcome:  outcome,
			Message:  err.Error(),
		},
	}
}

// writeSinks hands the report to every sink; one failing sink does not stop
// the others.
func (p *Pipeline) writeSinks(ctx context.Context, report domain.Report) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Write(ctx, report); err != nil {
			p.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			p.logger.Error("sink write failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		p.logger.Debug("sink written", "sink", s.Name())
	}
	return errors.Join(errs...)
}
