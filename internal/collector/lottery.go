package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"LottoSentinel/internal/model"
)

// LotteryFetcher reads the latest draw from a lottery results JSON API.
type LotteryFetcher struct {
	URL    string
	Client *http.Client
	Logger *log.Logger
	now    func() time.Time
}

// NewLotteryFetcher creates a fetcher with optional proxy support.
func NewLotteryFetcher(apiURL, proxyURL string, logger *log.Logger) *LotteryFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &LotteryFetcher{
		URL:    apiURL,
		Client: newHTTPClient(proxyURL),
		Logger: logger,
		now:    time.Now,
	}
}

func (f *LotteryFetcher) Name() string { return "lottery" }

// lotteryResponse is the expected JSON shape of the results API.
type lotteryResponse struct {
	Status   string `json:"status"`
	Response *struct {
		Date           string         `json:"date"`
		Endpoint       string         `json:"endpoint"`
		Prizes         []lotteryPrize `json:"prizes"`
		RunningNumbers []lotteryPrize `json:"runningNumbers"`
	} `json:"response"`
}

type lotteryPrize struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Reward string   `json:"reward"`
	Amount int      `json:"amount"`
	Number []string `json:"number"`
}

// Prize identifiers published by the API.
const (
	prizeFirst    = "prizeFirst"
	runningFront3 = "runningNumberFrontThree"
	runningBack3  = "runningNumberBackThree"
	runningBack2  = "runningNumberBackTwo"
)

// Fetch returns the latest draw as a single-record slice. ErrNoData is
// returned when the API does not answer 2xx or the draw is incomplete.
func (f *LotteryFetcher) Fetch(ctx context.Context) ([]model.LotteryRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lottery fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		f.Logger.Printf("[WARN] lottery: api returned status %d", resp.StatusCode)
		return nil, ErrNoData
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("lottery read body: %w", err)
	}
	var result lotteryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("lottery decode: %w", err)
	}

	rec, ok := toLotteryRecord(&result)
	if !ok {
		f.Logger.Printf("[WARN] lottery: prize data not available yet")
		return nil, ErrNoData
	}
	rec.LastUpdated = f.now().UTC()
	return []model.LotteryRecord{rec}, nil
}

func toLotteryRecord(r *lotteryResponse) (model.LotteryRecord, bool) {
	if r.Response == nil || strings.TrimSpace(r.Response.Date) == "" {
		return model.LotteryRecord{}, false
	}
	byID := make(map[string][]string)
	for _, p := range r.Response.Prizes {
		byID[p.ID] = p.Number
	}
	for _, p := range r.Response.RunningNumbers {
		byID[p.ID] = p.Number
	}

	first, front, back, two := byID[prizeFirst], byID[runningFront3], byID[runningBack3], byID[runningBack2]
	if len(first) == 0 || len(front) == 0 || len(back) == 0 || len(two) == 0 {
		return model.LotteryRecord{}, false
	}
	return model.LotteryRecord{
		Date: strings.TrimSpace(r.Response.Date),
		Prizes: model.Prizes{
			FirstPrize: first[0],
			ThreeFront: front,
			ThreeEnd:   back,
			TwoEnd:     two[0],
		},
	}, true
}
