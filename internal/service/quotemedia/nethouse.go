package quotemedia

import (
	"context"

	"VolSpike/internal/domain/models"
	xhttp "VolSpike/pkg/http"
)

const nethousePath = "/data/getNethouseBySymbol.json"

type nethouseResponse struct {
	Results struct {
		Nethouse struct {
			Summary struct {
				Participant []struct {
					PName string `json:"pname"`
					Buy   struct {
						Volume flexFloat `json:"volume"`
						VolPct flexFloat `json:"volpct"`
					} `json:"buy"`
					Sell struct {
						Volume flexFloat `json:"volume"`
						VolPct flexFloat `json:"volpct"`
					} `json:"sell"`
					Volume flexFloat `json:"volume"`
					NetVol flexFloat `json:"netvol"`
					NetVal flexFloat `json:"netval"`
				} `json:"participant"`
			} `json:"summary"`
		} `json:"nethouse"`
	} `json:"results"`
}

// NethouseClient retrieves per-broker participation ("net house") reports for
// one (symbol, date) pair.
type NethouseClient struct {
	api apiClient
}

// NewNethouseClient creates a broker participation fetcher.
func NewNethouseClient(httpc *xhttp.Client, baseURL string, session *Session, opts ...Option) *NethouseClient {
	c := &NethouseClient{
		api: apiClient{http: httpc, baseURL: baseURL, session: session},
	}
	for _, opt := range opts {
		opt(&c.api)
	}
	return c
}

// FetchReport returns the broker participation rows for a symbol on one day.
// Brokers with zero buy and zero sell volume carry no signal and are dropped
// at source. An empty report is a legitimate result, not an error.
func (c *NethouseClient) FetchReport(ctx context.Context, symbol, date string) ([]models.BrokerParticipation, error) {
	var resp nethouseResponse
	err := c.api.getJSON(ctx, "quotemedia.nethouse", "nethouse", nethousePath, map[string]string{
		"symbol": symbol,
		"start":  date,
		"end":    date,
	}, &resp)
	if err != nil {
		return nil, err
	}

	participants := resp.Results.Nethouse.Summary.Participant
	rows := make([]models.BrokerParticipation, 0, len(participants))
	for _, p := range participants {
		if p.Buy.Volume == 0 && p.Sell.Volume == 0 {
			continue
		}
		broker := p.PName
		if broker == "" {
			broker = unknownIdentifier
		}
		rows = append(rows, models.BrokerParticipation{
			Broker:      broker,
			Date:        date,
			BuyVolume:   float64(p.Buy.Volume),
			SellVolume:  float64(p.Sell.Volume),
			TotalVolume: float64(p.Volume),
			BuyPct:      float64(p.Buy.VolPct),
			SellPct:     float64(p.Sell.VolPct),
			NetVolume:   float64(p.NetVol),
			NetValue:    float64(p.NetVal),
		})
	}
	return rows, nil
}
