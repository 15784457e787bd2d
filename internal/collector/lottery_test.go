package collector

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const lotteryJSON = `{
  "status": "success",
  "response": {
    "date": "16 October 2026",
    "endpoint": "https://example.invalid/lotto/16102569",
    "prizes": [
      {"id": "prizeFirst", "name": "First prize", "reward": "6000000", "amount": 1, "number": ["123456"]},
      {"id": "prizeSecond", "name": "Second prize", "reward": "200000", "amount": 5, "number": ["1","2","3","4","5"]}
    ],
    "runningNumbers": [
      {"id": "runningNumberFrontThree", "name": "Front three", "reward": "4000", "amount": 2, "number": ["111", "222"]},
      {"id": "runningNumberBackThree", "name": "Back three", "reward": "4000", "amount": 2, "number": ["333", "444"]},
      {"id": "runningNumberBackTwo", "name": "Back two", "reward": "2000", "amount": 1, "number": ["55"]}
    ]
  }
}`

func lotteryServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLotteryFetcher_Success(t *testing.T) {
	srv := lotteryServer(t, http.StatusOK, lotteryJSON)
	f := NewLotteryFetcher(srv.URL, "", log.New(&bytes.Buffer{}, "", 0))
	f.now = func() time.Time { return fixedNow }

	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	r := records[0]
	if r.Date != "16 October 2026" {
		t.Errorf("date: got %q", r.Date)
	}
	p := r.Prizes
	if p.FirstPrize != "123456" || p.TwoEnd != "55" {
		t.Errorf("prizes: got %+v", p)
	}
	if len(p.ThreeFront) != 2 || p.ThreeFront[0] != "111" || p.ThreeEnd[1] != "444" {
		t.Errorf("three digit prizes: got %+v", p)
	}
	if !r.LastUpdated.Equal(fixedNow) {
		t.Errorf("lastUpdated: got %v", r.LastUpdated)
	}
}

func TestLotteryFetcher_NonSuccessIsNoData(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv := lotteryServer(t, status, `{"status":"error"}`)
		f := NewLotteryFetcher(srv.URL, "", log.New(&bytes.Buffer{}, "", 0))
		records, err := f.Fetch(context.Background())
		if !errors.Is(err, ErrNoData) {
			t.Errorf("status %d: expected ErrNoData, got %v", status, err)
		}
		if records != nil {
			t.Errorf("status %d: expected nil records, got %v", status, records)
		}
	}
}

func TestLotteryFetcher_MissingFieldsIsNoData(t *testing.T) {
	cases := map[string]string{
		"no response": `{"status":"success"}`,
		"no date":     `{"status":"success","response":{"date":"","prizes":[{"id":"prizeFirst","number":["1"]}]}}`,
		"no running":  `{"status":"success","response":{"date":"1 Nov 2026","prizes":[{"id":"prizeFirst","number":["123456"]}]}}`,
		"empty first": `{"status":"success","response":{"date":"1 Nov 2026","prizes":[{"id":"prizeFirst","number":[]}],"runningNumbers":[{"id":"runningNumberFrontThree","number":["1"]},{"id":"runningNumberBackThree","number":["2"]},{"id":"runningNumberBackTwo","number":["3"]}]}}`,
	}
	for name, body := range cases {
		srv := lotteryServer(t, http.StatusOK, body)
		f := NewLotteryFetcher(srv.URL, "", log.New(&bytes.Buffer{}, "", 0))
		if _, err := f.Fetch(context.Background()); !errors.Is(err, ErrNoData) {
			t.Errorf("%s: expected ErrNoData, got %v", name, err)
		}
	}
}

func TestLotteryFetcher_BadJSONIsError(t *testing.T) {
	srv := lotteryServer(t, http.StatusOK, `{not json`)
	f := NewLotteryFetcher(srv.URL, "", nil)
	_, err := f.Fetch(context.Background())
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLotteryFetcher_TransportError(t *testing.T) {
	srv := lotteryServer(t, http.StatusOK, lotteryJSON)
	url := srv.URL
	srv.Close()

	f := NewLotteryFetcher(url, "", nil)
	_, err := f.Fetch(context.Background())
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("expected transport error, got %v", err)
	}
}
