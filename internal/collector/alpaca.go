package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"RSRadar/internal/model"
)

const alpacaDataURL = "https://data.alpaca.markets/v2/stocks"

// AlpacaFetcher implements Fetcher using the Alpaca Market Data API
// (IEX feed, raw adjustment).
type AlpacaFetcher struct {
	APIKey    string
	APISecret string
	Feed      string
	Client    *http.Client
}

// NewAlpacaFetcher creates an Alpaca fetcher. feed defaults to "iex".
func NewAlpacaFetcher(apiKey, apiSecret, feed string) *AlpacaFetcher {
	if feed == "" {
		feed = "iex"
	}
	return &AlpacaFetcher{
		APIKey:    apiKey,
		APISecret: apiSecret,
		Feed:      feed,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// alpacaBar is one bar in an Alpaca bars response.
type alpacaBar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

type alpacaBarsResponse struct {
	Bars          []alpacaBar `json:"bars"`
	NextPageToken *string     `json:"next_page_token"`
}

// timeframeParam maps a timeframe to the Alpaca timeframe string.
func timeframeParam(tf model.Timeframe) (string, error) {
	switch tf {
	case model.TimeframeWeekly:
		return "1Week", nil
	case model.TimeframeDaily:
		return "1Day", nil
	case model.TimeframeHourly, model.Timeframe1H:
		return "1Hour", nil
	case model.Timeframe15M:
		return "15Min", nil
	case model.Timeframe5M:
		return "5Min", nil
	default:
		return "", fmt.Errorf("unsupported timeframe %q", tf)
	}
}

// lookbackStart pads the lookback with calendar days so weekends and
// holidays still leave enough trading bars.
func lookbackStart(tf model.Timeframe, lookback int, now time.Time) time.Time {
	if tf == model.TimeframeWeekly {
		return now.AddDate(0, 0, -7*lookback)
	}
	return now.AddDate(0, 0, -(lookback*3)/2)
}

// FetchBars fetches bars for one symbol, following pagination.
func (f *AlpacaFetcher) FetchBars(symbol string, tf model.Timeframe, lookback int) ([]model.OHLCV, error) {
	tfParam, err := timeframeParam(tf)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	start := lookbackStart(tf, lookback, now)

	var bars []model.OHLCV
	pageToken := ""
	for {
		page, next, err := f.fetchPage(symbol, tfParam, start, pageToken)
		if err != nil {
			return nil, err
		}
		bars = append(bars, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no bars returned: %w", symbol, ErrDataUnavailable)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *AlpacaFetcher) fetchPage(symbol, tfParam string, start time.Time, pageToken string) ([]model.OHLCV, string, error) {
	q := url.Values{}
	q.Set("timeframe", tfParam)
	q.Set("start", start.Format(time.RFC3339))
	q.Set("adjustment", "raw")
	q.Set("feed", f.Feed)
	q.Set("limit", "10000")
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	u := fmt.Sprintf("%s/%s/bars?%s", alpacaDataURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("APCA-API-KEY-ID", f.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", f.APISecret)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("alpaca fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("alpaca read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("alpaca: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed alpacaBarsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", fmt.Errorf("alpaca decode: %w", err)
	}

	out := make([]model.OHLCV, len(parsed.Bars))
	for i, b := range parsed.Bars {
		out[i] = model.OHLCV{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	next := ""
	if parsed.NextPageToken != nil {
		next = *parsed.NextPageToken
	}
	return out, next, nil
}
