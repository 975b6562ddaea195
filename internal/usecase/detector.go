package usecase

import (
	"math"
	"sort"

	"VolSpike/internal/domain/models"
)

// DetectSpikes classifies abnormal volume days. It is a pure function of the
// accumulated series and the parameters; no state survives between calls.
//
// Ranged mode considers every fetched day per symbol, baselines against the
// mean of the whole range, and only lets the highest-volume day (ties
// included) qualify. Lookback mode evaluates one selected day against the
// mean of its trailing business days, with no max-of-window constraint since
// there is only one evaluated day.
func DetectSpikes(series map[string][]models.DailyRecord, p models.AnalysisParams) []models.SpikeCandidate {
	var candidates []models.SpikeCandidate

	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		rows := append([]models.DailyRecord(nil), series[symbol]...)
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

		switch p.Mode() {
		case models.ModeLookback:
			candidates = append(candidates, detectLookback(rows, p)...)
		default:
			candidates = append(candidates, detectRanged(rows, p)...)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.VolPercent > b.VolPercent
	})
	return candidates
}

func detectRanged(rows []models.DailyRecord, p models.AnalysisParams) []models.SpikeCandidate {
	if len(rows) == 0 {
		return nil
	}

	var sum, maxVol float64
	for _, r := range rows {
		sum += r.ShareVolume
		if r.ShareVolume > maxVol {
			maxVol = r.ShareVolume
		}
	}
	avg := sum / float64(len(rows))
	if avg <= 0 {
		// cannot compute a meaningful percentage
		return nil
	}

	var out []models.SpikeCandidate
	for _, r := range rows {
		if r.ShareVolume != maxVol {
			continue
		}
		if c, ok := evaluate(r, avg, p); ok {
			out = append(out, c)
		}
	}
	return out
}

func detectLookback(rows []models.DailyRecord, p models.AnalysisParams) []models.SpikeCandidate {
	var selected *models.DailyRecord
	var sum float64
	var lookback int
	for i, r := range rows {
		switch {
		case r.Date == p.SelectedDate:
			selected = &rows[i]
		case r.Date < p.SelectedDate:
			sum += r.ShareVolume
			lookback++
		}
	}
	if selected == nil || lookback == 0 {
		return nil
	}

	// Baseline excludes the selected day: its own volume never moves it.
	avg := sum / float64(lookback)
	if avg <= 0 {
		return nil
	}

	if c, ok := evaluate(*selected, avg, p); ok {
		return []models.SpikeCandidate{c}
	}
	return nil
}

// evaluate applies the shared percent/price/share filters to one day against
// a baseline and produces the annotated candidate when all of them hold.
func evaluate(r models.DailyRecord, avg float64, p models.AnalysisParams) (models.SpikeCandidate, bool) {
	volPercent := ((r.ShareVolume - avg) / avg) * 100
	if volPercent < p.MinPercent || volPercent > p.MaxPercent {
		return models.SpikeCandidate{}, false
	}
	if r.Close < p.MinPrice || r.Close > p.MaxPrice {
		return models.SpikeCandidate{}, false
	}
	if r.ShareVolume < float64(p.MinShares) {
		return models.SpikeCandidate{}, false
	}
	return models.SpikeCandidate{
		Symbol:      r.Symbol,
		Exchange:    r.Exchange,
		Date:        r.Date,
		ShareVolume: r.ShareVolume,
		Close:       r.Close,
		AvgVolume:   round2(avg),
		VolPercent:  round2(volPercent),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
