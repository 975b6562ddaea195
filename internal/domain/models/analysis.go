package models

// Mode selects how the baseline window is built for spike detection.
type Mode string

const (
	// ModeRanged evaluates every fetched day per symbol against the mean of
	// the whole range; only the highest-volume day can qualify.
	ModeRanged Mode = "ranged"
	// ModeLookback evaluates a single selected day against the mean of a
	// fixed count of prior business days, excluding the selected day.
	ModeLookback Mode = "lookback"
)

// AnalysisParams is the immutable parameter set for one analysis run.
// The core holds no ambient filter state; everything flows through here.
type AnalysisParams struct {
	ExchangeCode string

	// Ranged mode window (inclusive calendar dates, YYYY-MM-DD).
	StartDate string
	EndDate   string

	// Lookback mode window.
	SelectedDate string
	LookbackDays int

	MinPrice         float64
	MaxPrice         float64
	MinPercent       float64
	MaxPercent       float64
	MinShares        int64
	MinBrokerPercent float64
}

// Mode derives the detection mode from the window parameters: a selected
// date with a lookback count means lookback, otherwise ranged.
func (p AnalysisParams) Mode() Mode {
	if p.SelectedDate != "" && p.LookbackDays > 0 {
		return ModeLookback
	}
	return ModeRanged
}

// DailyRecord is one normalized end-of-day observation for a symbol.
// Immutable once produced by the history fetcher.
type DailyRecord struct {
	Symbol      string  `json:"symbol"`
	Exchange    string  `json:"exchange"`
	Date        string  `json:"date"`
	ShareVolume float64 `json:"share_volume"`
	Close       float64 `json:"close"`
	Open        float64 `json:"open,omitempty"`
	High        float64 `json:"high,omitempty"`
	Low         float64 `json:"low,omitempty"`
}

// SpikeCandidate is a DailyRecord that passed every active filter,
// annotated with its baseline and percentage deviation.
type SpikeCandidate struct {
	Symbol      string  `json:"symbol"`
	Exchange    string  `json:"exchange"`
	Date        string  `json:"date"`
	ShareVolume float64 `json:"share_volume"`
	Close       float64 `json:"close"`
	AvgVolume   float64 `json:"avg_volume"`
	VolPercent  float64 `json:"vol_percent"`
}

// BrokerParticipation is one broker's buy/sell activity for a symbol on a
// single day. Rows with zero buy and zero sell volume are dropped at source.
type BrokerParticipation struct {
	Broker      string  `json:"broker"`
	Date        string  `json:"date"`
	BuyVolume   float64 `json:"buy_volume"`
	SellVolume  float64 `json:"sell_volume"`
	TotalVolume float64 `json:"total_volume"`
	BuyPct      float64 `json:"buy_pct"`
	SellPct     float64 `json:"sell_pct"`
	NetVolume   float64 `json:"net_volume"`
	NetValue    float64 `json:"net_value"`
}

// AttributionRow aggregates broker participation over a date set and relates
// it to the symbol's EOD volume. Recomputed each run, never persisted.
type AttributionRow struct {
	Broker      string  `json:"broker"`
	Symbol      string  `json:"symbol,omitempty"`
	BuyVolume   float64 `json:"buy_volume"`
	SellVolume  float64 `json:"sell_volume"`
	TotalVolume float64 `json:"total_volume"`
	NetVolume   float64 `json:"net_volume"`
	NetValue    float64 `json:"net_value"`

	// PctOfSymbolVolume divides the broker's buys by the symbol's EOD volume
	// over the whole date set; PctOfSymbolVolumeActiveDays restricts the
	// denominator to the dates the broker actually reported activity on.
	PctOfSymbolVolume           float64 `json:"pct_of_symbol_volume"`
	PctOfSymbolVolumeActiveDays float64 `json:"pct_of_symbol_volume_active_days"`
}

// AnalysisResult is what a finished run reports to the presentation layer.
// Zero candidates is a defined terminal state, not an error.
type AnalysisResult struct {
	RunID      string           `json:"run_id"`
	Mode       Mode             `json:"mode"`
	Candidates []SpikeCandidate `json:"candidates"`
	Warnings   []string         `json:"warnings,omitempty"`
	Message    string           `json:"message,omitempty"`
}
