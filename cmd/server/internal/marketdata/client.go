package marketdata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-sync/pkg/models"
)

const dailySeriesField = "Time Series (Daily)"

// rateLimitPhrases mark an upstream body as throttling regardless of which
// field carries it. Checked before the generic API-error branch.
var rateLimitPhrases = []string{
	"call frequency",
	"rate limit",
	"requests per",
}

// Client fetches daily series from an Alpha Vantage compatible endpoint.
// One outbound call per Fetch; no retry, no caching. Retry and backoff
// policy belong to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dailyEnvelope captures the recognizable top-level fields of an upstream
// response. The daily series itself is decoded separately because its key
// set is the dates.
type dailyEnvelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

type dailyFields struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// Fetch performs one live round trip for the symbol and normalizes the
// response into a Series sorted ascending by date. Every expected failure
// mode comes back as a *FetchError; transport faults map to KindFetchFailed.
func (c *Client) Fetch(ctx context.Context, symbol string) (*models.Series, error) {
	u := c.baseURL + "?function=TIME_SERIES_DAILY&symbol=" + url.QueryEscape(symbol) + "&apikey=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newFetchError(KindFetchFailed, "build request: %v", err)
	}
	req.Header.Set("User-Agent", "watchlist-sync")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(KindFetchFailed, "fetch %s: %v", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newFetchError(KindFetchFailed, "read body for %s: %v", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newFetchError(KindFetchFailed, "fetch %s: status %d", symbol, resp.StatusCode)
	}

	series, err := c.parse(symbol, body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched series", zap.String("symbol", symbol), zap.Int("bars", len(series.Data)))
	return series, nil
}

func (c *Client) parse(symbol string, body []byte) (*models.Series, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newFetchError(KindFetchFailed, "non-JSON body for %s: %v", symbol, err)
	}

	var env dailyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newFetchError(KindFetchFailed, "decode envelope for %s: %v", symbol, err)
	}

	// Classification priority: an explicit error body wins, with the
	// rate-limit phrasing checked before falling back to a generic
	// API error; then throttling notes, then structural emptiness.
	if env.ErrorMessage != "" {
		if isRateLimited(env.ErrorMessage) {
			return nil, newFetchError(KindRateLimit, "provider throttled %s", symbol)
		}
		return nil, newFetchError(KindAPIError, "%s", env.ErrorMessage)
	}
	if isRateLimited(env.Note) || isRateLimited(env.Information) {
		return nil, newFetchError(KindRateLimit, "provider throttled %s", symbol)
	}
	if len(raw) == 0 {
		return nil, newFetchError(KindInvalidSymbol, "empty response for %s", symbol)
	}

	seriesRaw, ok := raw[dailySeriesField]
	if !ok {
		return nil, newFetchError(KindNoData, "no daily series for %s", symbol)
	}

	var days map[string]dailyFields
	if err := json.Unmarshal(seriesRaw, &days); err != nil {
		return nil, newFetchError(KindFetchFailed, "decode daily series for %s: %v", symbol, err)
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	bars := make([]models.DailyBar, 0, len(dates))
	for _, date := range dates {
		bar, err := parseBar(date, days[date])
		if err != nil {
			// A partially-numeric series is unsafe to chart; fail the
			// whole fetch rather than return a truncated series.
			return nil, newFetchError(KindFetchFailed, "bad bar for %s on %s: %v", symbol, date, err)
		}
		bars = append(bars, bar)
	}

	return &models.Series{Symbol: symbol, Data: bars}, nil
}

func parseBar(date string, f dailyFields) (models.DailyBar, error) {
	var bar models.DailyBar
	var err error

	if bar.Open, err = strconv.ParseFloat(f.Open, 64); err != nil {
		return bar, err
	}
	if bar.High, err = strconv.ParseFloat(f.High, 64); err != nil {
		return bar, err
	}
	if bar.Low, err = strconv.ParseFloat(f.Low, 64); err != nil {
		return bar, err
	}
	if bar.Close, err = strconv.ParseFloat(f.Close, 64); err != nil {
		return bar, err
	}
	if bar.Volume, err = strconv.ParseInt(f.Volume, 10, 64); err != nil {
		return bar, err
	}
	bar.Date = date
	return bar, nil
}

func isRateLimited(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
