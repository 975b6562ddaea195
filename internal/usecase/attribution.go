package usecase

import (
	"sort"

	"VolSpike/internal/domain/models"
)

// FlaggedPair identifies one (symbol, date) the detector flagged.
type FlaggedPair struct {
	Symbol string
	Date   string
}

// SymbolAttribution aggregates broker participation for one symbol over a
// date set. reports maps each date to that day's broker rows; an absent or
// empty day simply contributes nothing.
//
// Each broker gets two percentages: buys over the symbol's EOD volume across
// the whole date set, and buys over the EOD volume of only the days that
// broker reported activity on. A broker survives the threshold when either
// percentage reaches minBrokerPercent.
func SymbolAttribution(symbol string, dates []string, series []models.DailyRecord, reports map[string][]models.BrokerParticipation, minBrokerPercent float64) []models.AttributionRow {
	eodByDate := make(map[string]float64, len(series))
	for _, r := range series {
		eodByDate[r.Date] = r.ShareVolume
	}

	var denomAll float64
	for _, d := range dates {
		denomAll += eodByDate[d]
	}

	type acc struct {
		row    models.AttributionRow
		active map[string]struct{}
	}
	byBroker := make(map[string]*acc)
	for _, d := range dates {
		for _, p := range reports[d] {
			a, ok := byBroker[p.Broker]
			if !ok {
				a = &acc{
					row:    models.AttributionRow{Broker: p.Broker, Symbol: symbol},
					active: make(map[string]struct{}),
				}
				byBroker[p.Broker] = a
			}
			a.row.BuyVolume += p.BuyVolume
			a.row.SellVolume += p.SellVolume
			a.row.TotalVolume += p.TotalVolume
			a.row.NetVolume += p.NetVolume
			a.row.NetValue += p.NetValue
			a.active[d] = struct{}{}
		}
	}

	rows := make([]models.AttributionRow, 0, len(byBroker))
	for _, a := range byBroker {
		var denomActive float64
		for d := range a.active {
			denomActive += eodByDate[d]
		}
		if denomAll > 0 {
			a.row.PctOfSymbolVolume = round2(a.row.BuyVolume / denomAll * 100)
		}
		if denomActive > 0 {
			a.row.PctOfSymbolVolumeActiveDays = round2(a.row.BuyVolume / denomActive * 100)
		}
		if a.row.PctOfSymbolVolume >= minBrokerPercent || a.row.PctOfSymbolVolumeActiveDays >= minBrokerPercent {
			rows = append(rows, a.row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PctOfSymbolVolume != rows[j].PctOfSymbolVolume {
			return rows[i].PctOfSymbolVolume > rows[j].PctOfSymbolVolume
		}
		return rows[i].Broker < rows[j].Broker
	})
	return rows
}

// GlobalAttribution aggregates broker participation across every flagged
// (symbol, date) pair, grouped by (broker, symbol). The percentage divides
// the broker's buys by the EOD volume of the first flagged date that broker
// appeared on for the symbol, so multi-date symbols understate the
// denominator. Pair order decides which date is first.
func GlobalAttribution(pairs []FlaggedPair, eodVolume func(symbol, date string) float64, reports map[FlaggedPair][]models.BrokerParticipation, minBrokerPercent float64) []models.AttributionRow {
	type key struct{ broker, symbol string }
	type acc struct {
		row       models.AttributionRow
		firstDate string
	}
	byKey := make(map[key]*acc)
	var order []key

	for _, pair := range pairs {
		for _, p := range reports[pair] {
			k := key{p.Broker, pair.Symbol}
			a, ok := byKey[k]
			if !ok {
				a = &acc{
					row:       models.AttributionRow{Broker: p.Broker, Symbol: pair.Symbol},
					firstDate: pair.Date,
				}
				byKey[k] = a
				order = append(order, k)
			}
			a.row.BuyVolume += p.BuyVolume
			a.row.SellVolume += p.SellVolume
			a.row.TotalVolume += p.TotalVolume
		}
	}

	rows := make([]models.AttributionRow, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		if denom := eodVolume(k.symbol, a.firstDate); denom > 0 {
			a.row.PctOfSymbolVolume = round2(a.row.BuyVolume / denom * 100)
		}
		if a.row.PctOfSymbolVolume >= minBrokerPercent {
			rows = append(rows, a.row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PctOfSymbolVolume != rows[j].PctOfSymbolVolume {
			return rows[i].PctOfSymbolVolume > rows[j].PctOfSymbolVolume
		}
		if rows[i].Broker != rows[j].Broker {
			return rows[i].Broker < rows[j].Broker
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}
