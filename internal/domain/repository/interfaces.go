package repository

import (
	"context"

	"VolSpike/internal/domain/models"
)

// HistoryProvider fetches one day of EOD records for an exchange.
// An empty slice with a nil error is a legitimate empty day.
type HistoryProvider interface {
	FetchDay(ctx context.Context, excode, date string) ([]models.DailyRecord, error)
}

// ReportProvider fetches one (symbol, date) broker participation report.
type ReportProvider interface {
	FetchReport(ctx context.Context, symbol, date string) ([]models.BrokerParticipation, error)
}

// ReportCache memoizes broker reports by (symbol, date) for one analysis run.
// Empty results are cached too.
type ReportCache interface {
	Get(symbol, date string) ([]models.BrokerParticipation, bool)
	Put(symbol, date string, rows []models.BrokerParticipation)
}

// SpikePublisher pushes detected spike candidates to downstream consumers.
type SpikePublisher interface {
	PublishSpikes(ctx context.Context, candidates []models.SpikeCandidate) error
	Close() error
}

// Metrics abstracts operational counters so usecases stay backend-agnostic.
type Metrics interface {
	RecordFetch(endpoint, outcome string)
	RecordAuthRefresh(result string)
	RecordCacheLookup(result string)
	RecordSpikes(mode string, count int)
	RecordLatency(op string, seconds float64)
}
