package quotemedia

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	xhttp "VolSpike/pkg/http"
)

const nethousePayload = `{
	"results": {
		"nethouse": {
			"summary": {
				"participant": [
					{
						"pname": "Anonymous",
						"buy": {"volume": "300", "volpct": 60},
						"sell": {"volume": 100, "volpct": 20},
						"volume": 400,
						"netvol": 200,
						"netval": "350.5"
					},
					{
						"pname": "Idle Broker",
						"buy": {"volume": 0},
						"sell": {"volume": 0},
						"volume": 0
					},
					{
						"buy": {"volume": 50},
						"sell": {"volume": 0},
						"volume": 50
					}
				]
			}
		}
	}
}`

func newNethouseClient(stub *upstreamStub) *NethouseClient {
	session := newTestSession(stub)
	return NewNethouseClient(xhttp.NewClient(), stub.server.URL, session)
}

func TestNethouseFetchReport(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "ABC" || q.Get("start") != "2024-10-07" || q.Get("end") != "2024-10-07" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, nethousePayload)
	}

	rows, err := newNethouseClient(stub).FetchReport(context.Background(), "ABC", "2024-10-07")
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}

	// the zero buy/zero sell broker is dropped
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Broker != "Anonymous" || first.Date != "2024-10-07" {
		t.Fatalf("unexpected identity %+v", first)
	}
	if first.BuyVolume != 300 || first.SellVolume != 100 || first.TotalVolume != 400 {
		t.Fatalf("unexpected volumes %+v", first)
	}
	if first.NetVolume != 200 || first.NetValue != 350.5 {
		t.Fatalf("unexpected net fields %+v", first)
	}

	if rows[1].Broker != "UNKNOWN" {
		t.Fatalf("missing pname should coerce to UNKNOWN, got %q", rows[1].Broker)
	}
}

func TestNethouseFetchReportEmpty(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": {"nethouse": {"summary": {"participant": []}}}}`)
	}

	rows, err := newNethouseClient(stub).FetchReport(context.Background(), "ABC", "2024-10-07")
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", rows)
	}
}
