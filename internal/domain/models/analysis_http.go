package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	ExchangeCode string `json:"exchange_code" default:"CDX" validate:"required"`

	// Ranged mode: inclusive calendar window.
	StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// Lookback mode: one evaluated day plus a trailing business-day baseline.
	SelectedDate string `json:"selected_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LookbackDays int    `json:"lookback_days,omitempty" validate:"omitempty,gte=1,lte=250"`

	MinPrice         float64 `json:"min_price" default:"0" validate:"gte=0"`
	MaxPrice         float64 `json:"max_price" default:"100" validate:"gte=0"`
	MinPercent       float64 `json:"min_percent" default:"80" validate:"gte=0"`
	MaxPercent       float64 `json:"max_percent" default:"200" validate:"gte=0"`
	MinShares        int64   `json:"min_shares" default:"0" validate:"gte=0"`
	MinBrokerPercent float64 `json:"min_broker_percent" default:"10" validate:"gte=0,lte=100"`

	// Optional per-request upstream credentials; config values are used when
	// absent. A credential change discards any cached session token.
	WmID     string `json:"wm_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Params converts a validated request into immutable run parameters.
func (r *AnalysisRequest) Params() AnalysisParams {
	return AnalysisParams{
		ExchangeCode:     r.ExchangeCode,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		SelectedDate:     r.SelectedDate,
		LookbackDays:     r.LookbackDays,
		MinPrice:         r.MinPrice,
		MaxPrice:         r.MaxPrice,
		MinPercent:       r.MinPercent,
		MaxPercent:       r.MaxPercent,
		MinShares:        r.MinShares,
		MinBrokerPercent: r.MinBrokerPercent,
	}
}
