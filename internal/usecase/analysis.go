package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"VolSpike/internal/domain/models"
	"VolSpike/internal/domain/repository"
	icache "VolSpike/internal/service/cache"
	"VolSpike/internal/service/quotemedia"
	"VolSpike/pkg/logger"
	"VolSpike/pkg/util"
)

var (
	ErrUnknownRun     = errors.New("unknown analysis run")
	ErrSymbolRequired = errors.New("symbol is required")
	ErrEmptyWindow    = errors.New("analysis window is empty")
)

// ProgressFunc receives (completed, total) after each unit of upstream work.
// The reported fraction never decreases within one run.
type ProgressFunc func(completed, total int)

// Analyzer orchestrates one analysis: build the date window, pull history day
// by day, detect spikes, prefetch broker reports for the flagged pairs, and
// keep the finished run around for attribution queries.
type Analyzer struct {
	history   repository.HistoryProvider
	reports   repository.ReportProvider
	publisher repository.SpikePublisher
	metrics   repository.Metrics
	logger    *logger.Logger

	mu   sync.RWMutex
	runs map[string]*analysisRun
}

// analysisRun is the retained state of one finished run. The broker report
// cache lives here: per run, never shared, never persisted.
type analysisRun struct {
	id         string
	params     models.AnalysisParams
	mode       models.Mode
	dates      []string
	series     map[string][]models.DailyRecord
	candidates []models.SpikeCandidate
	warnings   []string
	createdAt  time.Time
	reports    repository.ReportCache
}

type AnalyzerOption func(*Analyzer)

func WithPublisher(p repository.SpikePublisher) AnalyzerOption {
	return func(a *Analyzer) { a.publisher = p }
}

func WithAnalyzerMetrics(m repository.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

func WithAnalyzerLogger(l *logger.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

func NewAnalyzer(history repository.HistoryProvider, reports repository.ReportProvider, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		history: history,
		reports: reports,
		runs:    make(map[string]*analysisRun),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunAnalysis executes one full analysis and returns its result. The run is
// retained in the registry under the result's RunID for attribution queries.
//
// A date that fails to fetch becomes a warning and the run continues; an
// authentication failure aborts the run since every later fetch would fail
// the same way.
func (a *Analyzer) RunAnalysis(ctx context.Context, params models.AnalysisParams, progress ProgressFunc) (*models.AnalysisResult, error) {
	started := time.Now()

	run := &analysisRun{
		id:        uuid.NewString(),
		params:    params,
		mode:      params.Mode(),
		series:    make(map[string][]models.DailyRecord),
		createdAt: started,
		reports:   icache.NewReportCache(),
	}

	dates, warnings, err := buildWindow(params)
	if err != nil {
		return nil, err
	}
	run.dates = dates
	run.warnings = warnings

	reporter := newProgressReporter(progress)
	total := len(dates)
	reporter.report(0, total)

	seen := make(map[FlaggedPair]struct{})
	for i, date := range dates {
		rows, err := a.history.FetchDay(ctx, params.ExchangeCode, date)
		if err != nil {
			if quotemedia.IsAuthentication(err) || ctx.Err() != nil {
				return nil, err
			}
			run.warnings = append(run.warnings, fmt.Sprintf("history fetch failed for %s: %v", date, err))
			a.warn("history fetch failed", logger.String("date", date), logger.Error(err))
			reporter.report(i+1, total)
			continue
		}
		for _, r := range rows {
			key := FlaggedPair{Symbol: r.Symbol, Date: r.Date}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			run.series[r.Symbol] = append(run.series[r.Symbol], r)
		}
		reporter.report(i+1, total)
	}

	run.candidates = DetectSpikes(run.series, params)
	if a.metrics != nil {
		a.metrics.RecordSpikes(string(run.mode), len(run.candidates))
	}

	// Warm the per-run cache for every flagged pair so attribution queries
	// hit memory instead of the upstream.
	for _, c := range run.candidates {
		if _, err := a.cachedReport(ctx, run, c.Symbol, c.Date); err != nil {
			if quotemedia.IsAuthentication(err) || ctx.Err() != nil {
				return nil, err
			}
			run.warnings = append(run.warnings, fmt.Sprintf("broker report fetch failed for %s on %s: %v", c.Symbol, c.Date, err))
			a.warn("broker report fetch failed", logger.String("symbol", c.Symbol), logger.String("date", c.Date), logger.Error(err))
		}
	}

	if a.publisher != nil && len(run.candidates) > 0 {
		if err := a.publisher.PublishSpikes(ctx, run.candidates); err != nil {
			run.warnings = append(run.warnings, fmt.Sprintf("publish failed: %v", err))
			a.warn("spike publish failed", logger.Error(err))
		}
	}

	a.mu.Lock()
	a.runs[run.id] = run
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordLatency("analysis_run", time.Since(started).Seconds())
	}
	a.info("analysis run finished",
		logger.String("run_id", run.id),
		logger.String("mode", string(run.mode)),
		logger.Int("dates", len(dates)),
		logger.Int("symbols", len(run.series)),
		logger.Int("candidates", len(run.candidates)),
	)

	return run.result(), nil
}

// Result returns the stored result of a finished run.
func (a *Analyzer) Result(runID string) (*models.AnalysisResult, error) {
	run, err := a.run(runID)
	if err != nil {
		return nil, err
	}
	return run.result(), nil
}

// Attribution aggregates broker participation for one symbol over the run's
// full date window.
func (a *Analyzer) Attribution(ctx context.Context, runID, symbol string) ([]models.AttributionRow, error) {
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	run, err := a.run(runID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]models.BrokerParticipation, len(run.dates))
	for _, date := range run.dates {
		rows, err := a.cachedReport(ctx, run, symbol, date)
		if err != nil {
			if quotemedia.IsAuthentication(err) || ctx.Err() != nil {
				return nil, err
			}
			a.warn("broker report fetch failed", logger.String("symbol", symbol), logger.String("date", date), logger.Error(err))
			continue
		}
		byDate[date] = rows
	}

	return SymbolAttribution(symbol, run.dates, run.series[symbol], byDate, run.params.MinBrokerPercent), nil
}

// CrossSymbolAttribution aggregates broker participation across every flagged
// pair of the run, grouped by (broker, symbol).
func (a *Analyzer) CrossSymbolAttribution(ctx context.Context, runID string) ([]models.AttributionRow, error) {
	run, err := a.run(runID)
	if err != nil {
		return nil, err
	}

	pairs := make([]FlaggedPair, 0, len(run.candidates))
	byPair := make(map[FlaggedPair][]models.BrokerParticipation, len(run.candidates))
	for _, c := range run.candidates {
		pair := FlaggedPair{Symbol: c.Symbol, Date: c.Date}
		pairs = append(pairs, pair)

		rows, err := a.cachedReport(ctx, run, pair.Symbol, pair.Date)
		if err != nil {
			if quotemedia.IsAuthentication(err) || ctx.Err() != nil {
				return nil, err
			}
			a.warn("broker report fetch failed", logger.String("symbol", pair.Symbol), logger.String("date", pair.Date), logger.Error(err))
			continue
		}
		byPair[pair] = rows
	}

	eodVolume := func(symbol, date string) float64 {
		for _, r := range run.series[symbol] {
			if r.Date == date {
				return r.ShareVolume
			}
		}
		return 0
	}
	return GlobalAttribution(pairs, eodVolume, byPair, run.params.MinBrokerPercent), nil
}

func (a *Analyzer) run(runID string) (*analysisRun, error) {
	a.mu.RLock()
	run, ok := a.runs[runID]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownRun
	}
	return run, nil
}

// cachedReport consults the run's report cache before the upstream. Empty
// results are cached; errors are not, so a failed pair may be retried by a
// later attribution query.
func (a *Analyzer) cachedReport(ctx context.Context, run *analysisRun, symbol, date string) ([]models.BrokerParticipation, error) {
	if rows, ok := run.reports.Get(symbol, date); ok {
		if a.metrics != nil {
			a.metrics.RecordCacheLookup("hit")
		}
		return rows, nil
	}
	if a.metrics != nil {
		a.metrics.RecordCacheLookup("miss")
	}

	rows, err := a.reports.FetchReport(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	run.reports.Put(symbol, date, rows)
	return rows, nil
}

// buildWindow derives the ordered date list for the run. Ranged windows with
// reversed bounds are swapped and noted as a warning rather than rejected.
func buildWindow(params models.AnalysisParams) (dates []string, warnings []string, err error) {
	switch params.Mode() {
	case models.ModeLookback:
		selected, ok := util.ParseDate(params.SelectedDate)
		if !ok {
			return nil, nil, fmt.Errorf("invalid selected date %q", params.SelectedDate)
		}
		dates = append(util.BusinessDaysBack(selected, params.LookbackDays), params.SelectedDate)
	default:
		start, ok := util.ParseDate(params.StartDate)
		if !ok {
			return nil, nil, fmt.Errorf("invalid start date %q", params.StartDate)
		}
		end, ok := util.ParseDate(params.EndDate)
		if !ok {
			return nil, nil, fmt.Errorf("invalid end date %q", params.EndDate)
		}
		if start.After(end) {
			start, end = end, start
			warnings = append(warnings, fmt.Sprintf("start date after end date, swapped to %s..%s", util.FormatDate(start), util.FormatDate(end)))
		}
		dates = util.DateRange(start, end)
	}
	if len(dates) == 0 {
		return nil, nil, ErrEmptyWindow
	}
	return dates, warnings, nil
}

func (r *analysisRun) result() *models.AnalysisResult {
	res := &models.AnalysisResult{
		RunID:      r.id,
		Mode:       r.mode,
		Candidates: r.candidates,
		Warnings:   r.warnings,
	}
	switch {
	case len(r.series) == 0:
		res.Message = "no trading data returned for the requested window"
	case len(r.candidates) == 0:
		res.Message = "no symbols matched the spike criteria"
	}
	return res
}

func (a *Analyzer) warn(msg string, fields ...logger.Field) {
	if a.logger != nil {
		a.logger.Warn(msg, fields...)
	}
}

func (a *Analyzer) info(msg string, fields ...logger.Field) {
	if a.logger != nil {
		a.logger.Info(msg, fields...)
	}
}

// progressReporter forwards progress and suppresses any update that would
// move the reported fraction backwards, so consumers can drive a progress
// bar directly off the callback.
type progressReporter struct {
	fn       ProgressFunc
	lastFrac float64
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) report(completed, total int) {
	if p.fn == nil || total <= 0 {
		return
	}
	frac := float64(completed) / float64(total)
	if frac < p.lastFrac {
		return
	}
	p.lastFrac = frac
	p.fn(completed, total)
}
