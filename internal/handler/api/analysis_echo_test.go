package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolSpike/internal/domain/models"
	"VolSpike/internal/service/quotemedia"
	"VolSpike/internal/usecase"
	xhttp "VolSpike/pkg/http"
	xlogger "VolSpike/pkg/logger"
)

type stubHistory struct {
	byDay map[string][]models.DailyRecord
}

func (s *stubHistory) FetchDay(_ context.Context, _, date string) ([]models.DailyRecord, error) {
	return s.byDay[date], nil
}

type stubReports struct {
	rows []models.BrokerParticipation
}

func (s *stubReports) FetchReport(_ context.Context, _, _ string) ([]models.BrokerParticipation, error) {
	return s.rows, nil
}

func newTestServer(t *testing.T, opts ...HandlerOption) *echo.Echo {
	t.Helper()

	history := &stubHistory{byDay: map[string][]models.DailyRecord{
		"2024-10-01": {{Symbol: "ABC", Exchange: "CDX", Date: "2024-10-01", ShareVolume: 100, Close: 1.50}},
		"2024-10-02": {{Symbol: "ABC", Exchange: "CDX", Date: "2024-10-02", ShareVolume: 100, Close: 1.50}},
		"2024-10-03": {{Symbol: "ABC", Exchange: "CDX", Date: "2024-10-03", ShareVolume: 500, Close: 1.60}},
	}}
	reports := &stubReports{rows: []models.BrokerParticipation{
		{Broker: "Anonymous", Date: "2024-10-03", BuyVolume: 250, TotalVolume: 250},
	}}

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	analyzer := usecase.NewAnalyzer(history, reports)
	session := quotemedia.NewSession(xhttp.NewClient(), "http://upstream.invalid", quotemedia.Credentials{WmID: "101000"})
	h := NewAnalysisHandler(l, analyzer, session, nil, opts...)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) envelope {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reqBody)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAnalysisEndToEnd(t *testing.T) {
	e := newTestServer(t)

	env := doJSON(t, e, http.MethodPost, "/api/analysis",
		`{"exchange_code":"CDX","start_date":"2024-10-01","end_date":"2024-10-03"}`)
	require.Equal(t, http.StatusOK, env.Status)

	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "2024-10-03", res.Candidates[0].Date)

	// stored result is queryable
	env = doJSON(t, e, http.MethodGet, "/api/analysis/"+res.RunID, "")
	require.Equal(t, http.StatusOK, env.Status)

	// per-symbol attribution over the run window
	env = doJSON(t, e, http.MethodGet, "/api/analysis/"+res.RunID+"/attribution?symbol=ABC", "")
	require.Equal(t, http.StatusOK, env.Status)

	var rows []models.AttributionRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Anonymous", rows[0].Broker)

	// cross-symbol attribution without the symbol parameter
	env = doJSON(t, e, http.MethodGet, "/api/analysis/"+res.RunID+"/attribution", "")
	require.Equal(t, http.StatusOK, env.Status)
}

func TestAnalysisRejectsMissingWindow(t *testing.T) {
	e := newTestServer(t)

	env := doJSON(t, e, http.MethodPost, "/api/analysis", `{"exchange_code":"CDX"}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestAnalysisRejectsInvertedBand(t *testing.T) {
	e := newTestServer(t)

	env := doJSON(t, e, http.MethodPost, "/api/analysis",
		`{"exchange_code":"CDX","start_date":"2024-10-01","end_date":"2024-10-03","min_percent":300,"max_percent":200}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestAnalysisRejectsPartialLookback(t *testing.T) {
	e := newTestServer(t)

	env := doJSON(t, e, http.MethodPost, "/api/analysis",
		`{"exchange_code":"CDX","selected_date":"2024-10-03"}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestAnalysisLookbackDefaultFillsWindow(t *testing.T) {
	e := newTestServer(t, WithLookbackDefault(2))

	env := doJSON(t, e, http.MethodPost, "/api/analysis",
		`{"exchange_code":"CDX","selected_date":"2024-10-03"}`)
	require.Equal(t, http.StatusOK, env.Status)

	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.ModeLookback, res.Mode)
}

func TestAnalysisUnknownRun(t *testing.T) {
	e := newTestServer(t)

	env := doJSON(t, e, http.MethodGet, "/api/analysis/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, env.Status)

	env = doJSON(t, e, http.MethodGet, "/api/analysis/does-not-exist/attribution", "")
	assert.Equal(t, http.StatusNotFound, env.Status)
}
