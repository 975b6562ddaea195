package quotemedia

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	pkgcache "VolSpike/pkg/cache"
	xhttp "VolSpike/pkg/http"
)

const historyPayload = `{
	"results": {
		"history": [
			{
				"symbolstring": "ABC:CA",
				"key": {"exchange": "CDX"},
				"eoddata": [
					{"sharevolume": "500", "close": 1.6, "open": "1.5", "high": null, "low": 1.4}
				]
			},
			{
				"symbol": "DEF",
				"key": {},
				"eoddata": [
					{"sharevolume": 250, "close": "not-a-number"}
				]
			},
			{
				"eoddata": [
					{"sharevolume": 10, "close": 0.5}
				]
			}
		]
	}
}`

func newHistoryClient(stub *upstreamStub) *HistoryClient {
	session := newTestSession(stub)
	return NewHistoryClient(xhttp.NewClient(), stub.server.URL, session)
}

func TestHistoryFetchDayNormalizes(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("excode"); got != "CDX" {
			t.Errorf("unexpected excode %q", got)
		}
		if got := r.URL.Query().Get("sid"); got != "sid-1" {
			t.Errorf("unexpected sid %q", got)
		}
		if got := r.URL.Query().Get("webmasterId"); got != "101000" {
			t.Errorf("unexpected webmasterId %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, historyPayload)
	}

	records, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Symbol != "ABC:CA" || first.Exchange != "CDX" || first.Date != "2024-10-07" {
		t.Fatalf("unexpected identity %+v", first)
	}
	if first.ShareVolume != 500 || first.Close != 1.6 || first.Open != 1.5 || first.High != 0 {
		t.Fatalf("unexpected quote fields %+v", first)
	}

	// symbolstring absent falls back to symbol, then to UNKNOWN
	if records[1].Symbol != "DEF" || records[1].Exchange != "UNKNOWN" {
		t.Fatalf("unexpected fallback identity %+v", records[1])
	}
	if records[1].Close != 0 {
		t.Fatalf("non-numeric close should coerce to zero, got %v", records[1].Close)
	}
	if records[2].Symbol != "UNKNOWN" {
		t.Fatalf("missing symbol should coerce to UNKNOWN, got %q", records[2].Symbol)
	}
}

func TestHistoryFetchDayEmpty(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": {"history": []}}`)
	}

	records, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", records)
	}
}

func TestFetchRetriesOnceOnSessionRejection(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code": {"value": 20, "name": "NotAuthorized"}}`)
	}

	_, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if !IsNotAuthorized(err) {
		t.Fatalf("expected not-authorized error, got %v", err)
	}

	// exactly one retry: two data calls, two auth rounds
	if got := stub.data(historyPath); got != 2 {
		t.Fatalf("expected 2 history calls, got %d", got)
	}
	if got := stub.auths(); got != 2 {
		t.Fatalf("expected 2 auth calls, got %d", got)
	}
}

func TestFetchRecoversAfterReauth(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if stub.data(historyPath) == 1 {
			fmt.Fprint(w, `{"code": {"value": 20, "name": "NotAuthorized"}}`)
			return
		}
		fmt.Fprint(w, historyPayload)
	}

	records, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records after retry, got %d", len(records))
	}
	if got := stub.auths(); got != 2 {
		t.Fatalf("expected 2 auth calls, got %d", got)
	}
}

func TestFetchTransportErrorIsTerminal(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}

	_, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := stub.data(historyPath); got != 1 {
		t.Fatalf("transport failures must not retry, got %d calls", got)
	}
}

func TestFetchRetriesUnparseablePayload(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}

	_, err := newHistoryClient(stub).FetchDay(context.Background(), "CDX", "2024-10-07")
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if got := stub.data(historyPath); got != 2 {
		t.Fatalf("expected 2 history calls, got %d", got)
	}
}

func TestHistoryFetchDayUsesSharedCache(t *testing.T) {
	stub := newUpstreamStub(t)
	stub.dataHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, historyPayload)
	}

	client := newHistoryClient(stub)
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	client.SetCache(mem, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := client.FetchDay(context.Background(), "CDX", "2024-10-07"); err != nil {
			t.Fatalf("FetchDay: %v", err)
		}
	}
	if got := stub.data(historyPath); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
}
