package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolSpike/internal/domain/models"
	"VolSpike/internal/service/quotemedia"
)

type fakeHistory struct {
	mu    sync.Mutex
	byDay map[string][]models.DailyRecord
	fail  map[string]error
	calls int
}

func (f *fakeHistory) FetchDay(_ context.Context, _, date string) ([]models.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[date]; ok {
		return nil, err
	}
	return f.byDay[date], nil
}

type fakeReports struct {
	mu     sync.Mutex
	byPair map[FlaggedPair][]models.BrokerParticipation
	calls  map[FlaggedPair]int
}

func (f *fakeReports) FetchReport(_ context.Context, symbol, date string) ([]models.BrokerParticipation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[FlaggedPair]int)
	}
	pair := FlaggedPair{Symbol: symbol, Date: date}
	f.calls[pair]++
	return f.byPair[pair], nil
}

func spikeWindow() *fakeHistory {
	// flat 100-share baseline with a 500-share final day
	byDay := make(map[string][]models.DailyRecord)
	for _, d := range []string{"2024-10-01", "2024-10-02", "2024-10-03", "2024-10-04"} {
		byDay[d] = []models.DailyRecord{day("ABC", d, 100, 1.50)}
	}
	byDay["2024-10-07"] = []models.DailyRecord{day("ABC", "2024-10-07", 500, 1.60)}
	return &fakeHistory{byDay: byDay}
}

func windowParams() models.AnalysisParams {
	return models.AnalysisParams{
		ExchangeCode: "CDX",
		StartDate:    "2024-10-01",
		EndDate:      "2024-10-07",
		MaxPrice:     100,
		MinPercent:   80,
		MaxPercent:   200,
	}
}

func TestRunAnalysisDetectsSpike(t *testing.T) {
	history := spikeWindow()
	reports := &fakeReports{}
	a := NewAnalyzer(history, reports)

	res, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "2024-10-07", res.Candidates[0].Date)
	assert.Equal(t, 177.78, res.Candidates[0].VolPercent)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, models.ModeRanged, res.Mode)
	assert.Empty(t, res.Message)

	stored, err := a.Result(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, stored.RunID)
}

func TestRunAnalysisFetchesEachReportOnce(t *testing.T) {
	history := spikeWindow()
	pair := FlaggedPair{Symbol: "ABC", Date: "2024-10-07"}
	reports := &fakeReports{byPair: map[FlaggedPair][]models.BrokerParticipation{
		pair: {broker("Anonymous", pair.Date, 300, 0)},
	}}
	a := NewAnalyzer(history, reports)

	res, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.NoError(t, err)

	// The run prefetches the flagged pair; both attribution views reuse it.
	_, err = a.Attribution(context.Background(), res.RunID, "ABC")
	require.NoError(t, err)
	_, err = a.CrossSymbolAttribution(context.Background(), res.RunID)
	require.NoError(t, err)

	assert.Equal(t, 1, reports.calls[pair])
	// Empty days are cached the first time Attribution walks the window.
	for _, d := range []string{"2024-10-01", "2024-10-02", "2024-10-03", "2024-10-04"} {
		assert.Equal(t, 1, reports.calls[FlaggedPair{Symbol: "ABC", Date: d}])
	}
}

func TestRunAnalysisProgressIsMonotonic(t *testing.T) {
	history := spikeWindow()
	a := NewAnalyzer(history, &fakeReports{})

	var fracs []float64
	var lastCompleted, lastTotal int
	_, err := a.RunAnalysis(context.Background(), windowParams(), func(completed, total int) {
		fracs = append(fracs, float64(completed)/float64(total))
		lastCompleted, lastTotal = completed, total
	})
	require.NoError(t, err)

	require.NotEmpty(t, fracs)
	for i := 1; i < len(fracs); i++ {
		assert.GreaterOrEqual(t, fracs[i], fracs[i-1])
	}
	assert.Equal(t, lastTotal, lastCompleted)
	assert.Equal(t, 7, lastTotal) // inclusive calendar range, weekend included
}

func TestRunAnalysisWarnsOnFailedDate(t *testing.T) {
	history := spikeWindow()
	history.fail = map[string]error{
		"2024-10-02": &quotemedia.Error{Kind: quotemedia.KindTransport, Op: "history", Err: errors.New("upstream 503")},
	}
	a := NewAnalyzer(history, &fakeReports{})

	res, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "2024-10-02")
	// the remaining days still produce the spike
	assert.Len(t, res.Candidates, 1)
}

func TestRunAnalysisAuthenticationIsTerminal(t *testing.T) {
	history := spikeWindow()
	history.fail = map[string]error{
		"2024-10-01": &quotemedia.Error{Kind: quotemedia.KindAuthentication, Op: "authenticate", Err: errors.New("rejected")},
	}
	a := NewAnalyzer(history, &fakeReports{})

	_, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.Error(t, err)
	assert.True(t, quotemedia.IsAuthentication(err))
}

func TestRunAnalysisSwapsReversedRange(t *testing.T) {
	history := spikeWindow()
	a := NewAnalyzer(history, &fakeReports{})

	p := windowParams()
	p.StartDate, p.EndDate = p.EndDate, p.StartDate
	res, err := a.RunAnalysis(context.Background(), p, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "swapped")
	assert.Len(t, res.Candidates, 1)
}

func TestRunAnalysisDeduplicatesRecords(t *testing.T) {
	history := spikeWindow()
	// the upstream repeats the 10-01 row inside one payload
	history.byDay["2024-10-01"] = append(history.byDay["2024-10-01"], day("ABC", "2024-10-01", 100, 1.50))
	a := NewAnalyzer(history, &fakeReports{})

	res, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.NoError(t, err)
	// avg stays 180, so the percentage is unchanged
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 180.0, res.Candidates[0].AvgVolume)
}

func TestRunAnalysisEmptyWindowMessage(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{}, &fakeReports{})

	res, err := a.RunAnalysis(context.Background(), windowParams(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, "no trading data returned for the requested window", res.Message)
}

func TestRunAnalysisRejectsBadDates(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{}, &fakeReports{})

	p := windowParams()
	p.StartDate = "10/01/2024"
	_, err := a.RunAnalysis(context.Background(), p, nil)
	require.Error(t, err)
}

func TestAttributionUnknownRun(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{}, &fakeReports{})

	_, err := a.Attribution(context.Background(), "nope", "ABC")
	assert.ErrorIs(t, err, ErrUnknownRun)

	_, err = a.CrossSymbolAttribution(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownRun)

	_, err = a.Result("nope")
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestAttributionRequiresSymbol(t *testing.T) {
	a := NewAnalyzer(&fakeHistory{}, &fakeReports{})
	_, err := a.Attribution(context.Background(), "any", "")
	assert.ErrorIs(t, err, ErrSymbolRequired)
}
