package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolSpike/internal/domain/models"
)

func broker(name, date string, buy, sell float64) models.BrokerParticipation {
	return models.BrokerParticipation{
		Broker:      name,
		Date:        date,
		BuyVolume:   buy,
		SellVolume:  sell,
		TotalVolume: buy + sell,
		NetVolume:   buy - sell,
	}
}

func TestSymbolAttributionPercentages(t *testing.T) {
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-07", ShareVolume: 100},
	}
	reports := map[string][]models.BrokerParticipation{
		"2024-10-07": {
			broker("Anonymous", "2024-10-07", 50, 0),
			broker("Haywood", "2024-10-07", 10, 0),
		},
	}

	rows := SymbolAttribution("ABC", []string{"2024-10-07"}, series, reports, 0)
	require.Len(t, rows, 2)

	assert.Equal(t, "Anonymous", rows[0].Broker)
	assert.Equal(t, 50.0, rows[0].PctOfSymbolVolume)
	assert.Equal(t, "Haywood", rows[1].Broker)
	assert.Equal(t, 10.0, rows[1].PctOfSymbolVolume)

	// single day: both denominators coincide
	assert.Equal(t, rows[0].PctOfSymbolVolume, rows[0].PctOfSymbolVolumeActiveDays)
}

func TestSymbolAttributionThreshold(t *testing.T) {
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-07", ShareVolume: 100},
	}
	reports := map[string][]models.BrokerParticipation{
		"2024-10-07": {
			broker("Anonymous", "2024-10-07", 50, 0),
			broker("Haywood", "2024-10-07", 10, 0),
		},
	}

	rows := SymbolAttribution("ABC", []string{"2024-10-07"}, series, reports, 20)
	require.Len(t, rows, 1)
	assert.Equal(t, "Anonymous", rows[0].Broker)
}

func TestSymbolAttributionActiveDaysKeepsConcentratedBroker(t *testing.T) {
	// 1000 shares traded over the window but the broker was only active on
	// the 100-share day: 5% overall, 50% on its active days. The inclusive-or
	// threshold keeps it.
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-01", ShareVolume: 900},
		{Symbol: "ABC", Date: "2024-10-02", ShareVolume: 100},
	}
	reports := map[string][]models.BrokerParticipation{
		"2024-10-02": {broker("Canaccord", "2024-10-02", 50, 0)},
	}

	rows := SymbolAttribution("ABC", []string{"2024-10-01", "2024-10-02"}, series, reports, 10)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0].PctOfSymbolVolume)
	assert.Equal(t, 50.0, rows[0].PctOfSymbolVolumeActiveDays)
}

func TestSymbolAttributionSumsAcrossDates(t *testing.T) {
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-01", ShareVolume: 200},
		{Symbol: "ABC", Date: "2024-10-02", ShareVolume: 200},
	}
	reports := map[string][]models.BrokerParticipation{
		"2024-10-01": {broker("Anonymous", "2024-10-01", 40, 10)},
		"2024-10-02": {broker("Anonymous", "2024-10-02", 60, 30)},
	}

	rows := SymbolAttribution("ABC", []string{"2024-10-01", "2024-10-02"}, series, reports, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].BuyVolume)
	assert.Equal(t, 40.0, rows[0].SellVolume)
	assert.Equal(t, 140.0, rows[0].TotalVolume)
	assert.Equal(t, 60.0, rows[0].NetVolume)
	assert.Equal(t, 25.0, rows[0].PctOfSymbolVolume)
}

func TestSymbolAttributionEmptyReports(t *testing.T) {
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-07", ShareVolume: 100},
	}
	rows := SymbolAttribution("ABC", []string{"2024-10-07"}, series, nil, 10)
	assert.Empty(t, rows)
}

func TestSymbolAttributionIdempotent(t *testing.T) {
	series := []models.DailyRecord{
		{Symbol: "ABC", Date: "2024-10-07", ShareVolume: 100},
	}
	reports := map[string][]models.BrokerParticipation{
		"2024-10-07": {broker("Anonymous", "2024-10-07", 50, 20)},
	}

	first := SymbolAttribution("ABC", []string{"2024-10-07"}, series, reports, 10)
	second := SymbolAttribution("ABC", []string{"2024-10-07"}, series, reports, 10)
	assert.Equal(t, first, second)
}

func TestGlobalAttributionGroupsByBrokerAndSymbol(t *testing.T) {
	pairs := []FlaggedPair{
		{Symbol: "ABC", Date: "2024-10-01"},
		{Symbol: "ABC", Date: "2024-10-02"},
		{Symbol: "XYZ", Date: "2024-10-02"},
	}
	eod := map[FlaggedPair]float64{
		{Symbol: "ABC", Date: "2024-10-01"}: 100,
		{Symbol: "ABC", Date: "2024-10-02"}: 400,
		{Symbol: "XYZ", Date: "2024-10-02"}: 200,
	}
	reports := map[FlaggedPair][]models.BrokerParticipation{
		{Symbol: "ABC", Date: "2024-10-01"}: {broker("Anonymous", "2024-10-01", 30, 0)},
		{Symbol: "ABC", Date: "2024-10-02"}: {broker("Anonymous", "2024-10-02", 50, 0)},
		{Symbol: "XYZ", Date: "2024-10-02"}: {broker("Anonymous", "2024-10-02", 40, 0)},
	}

	rows := GlobalAttribution(pairs, func(symbol, date string) float64 {
		return eod[FlaggedPair{Symbol: symbol, Date: date}]
	}, reports, 0)
	require.Len(t, rows, 2)

	// ABC sums both dates but divides by the first flagged date's volume.
	assert.Equal(t, "ABC", rows[0].Symbol)
	assert.Equal(t, 80.0, rows[0].BuyVolume)
	assert.Equal(t, 80.0, rows[0].PctOfSymbolVolume)

	assert.Equal(t, "XYZ", rows[1].Symbol)
	assert.Equal(t, 20.0, rows[1].PctOfSymbolVolume)
}

func TestGlobalAttributionThresholdAndOrder(t *testing.T) {
	pairs := []FlaggedPair{{Symbol: "ABC", Date: "2024-10-07"}}
	reports := map[FlaggedPair][]models.BrokerParticipation{
		pairs[0]: {
			broker("Haywood", "2024-10-07", 10, 0),
			broker("Anonymous", "2024-10-07", 60, 0),
			broker("Canaccord", "2024-10-07", 25, 0),
		},
	}
	eod := func(string, string) float64 { return 100 }

	rows := GlobalAttribution(pairs, eod, reports, 10)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Anonymous", "Canaccord", "Haywood"},
		[]string{rows[0].Broker, rows[1].Broker, rows[2].Broker})

	rows = GlobalAttribution(pairs, eod, reports, 20)
	require.Len(t, rows, 2)
}
