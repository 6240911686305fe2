package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"Meta Data": {"1. Information": "Daily Prices", "2. Symbol": "AAPL"},
	"Time Series (Daily)": {
		"2024-01-03": {"1. open": "184.22", "2. high": "185.88", "3. low": "183.43", "4. close": "184.25", "5. volume": "58414500"},
		"2024-01-02": {"1. open": "187.15", "2. high": "188.44", "3. low": "183.89", "4. close": "185.64", "5. volume": "82488700"},
		"2024-01-04": {"1. open": "182.15", "2. high": "183.09", "3. low": "180.88", "4. close": "181.91", "5. volume": "71983600"}
	}
}`

func fixtureServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "testkey")
}

func fetchKind(t *testing.T, client *Client) ErrorKind {
	t.Helper()
	_, err := client.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	return KindOf(err)
}

func TestFetch_ValidSeries(t *testing.T) {
	client := fixtureServer(t, http.StatusOK, validBody)

	series, err := client.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, series.Data, 3)
	assert.Equal(t, "AAPL", series.Symbol)

	// Upstream keys arrive in arbitrary order; bars must come out ascending.
	assert.Equal(t, "2024-01-02", series.Data[0].Date)
	assert.Equal(t, "2024-01-03", series.Data[1].Date)
	assert.Equal(t, "2024-01-04", series.Data[2].Date)

	assert.Equal(t, 187.15, series.Data[0].Open)
	assert.Equal(t, 188.44, series.Data[0].High)
	assert.Equal(t, 183.89, series.Data[0].Low)
	assert.Equal(t, 185.64, series.Data[0].Close)
	assert.Equal(t, int64(82488700), series.Data[0].Volume)
}

func TestFetch_WireShapeRoundTrip(t *testing.T) {
	client := fixtureServer(t, http.StatusOK, validBody)

	series, err := client.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	out, err := json.Marshal(series)
	require.NoError(t, err)

	wire := string(out)
	assert.Contains(t, wire, `"symbol":"AAPL"`)
	assert.Contains(t, wire, `"date":"2024-01-02"`)
	assert.Contains(t, wire, `"open":187.15`)
	assert.Contains(t, wire, `"close":185.64`)
	assert.Contains(t, wire, `"volume":82488700`)

	// Two-decimal source values survive the float round trip verbatim.
	assert.NotContains(t, wire, "187.14999")
}

func TestFetch_RateLimitInErrorBody(t *testing.T) {
	// The rate-limit phrasing wins over the generic API-error branch.
	client := fixtureServer(t, http.StatusOK,
		`{"Error Message": "Our standard API call frequency is 5 calls per minute"}`)

	assert.Equal(t, KindRateLimit, fetchKind(t, client))
}

func TestFetch_APIErrorBody(t *testing.T) {
	client := fixtureServer(t, http.StatusOK,
		`{"Error Message": "Invalid API call. Please retry with a valid function."}`)

	_, err := client.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindAPIError, KindOf(err))
	assert.Contains(t, err.Error(), "Invalid API call")
}

func TestFetch_RateLimitNote(t *testing.T) {
	client := fixtureServer(t, http.StatusOK,
		`{"Note": "Thank you for using our API. Our standard API call frequency is 5 calls per minute."}`)

	assert.Equal(t, KindRateLimit, fetchKind(t, client))
}

func TestFetch_EmptyBody_InvalidSymbol(t *testing.T) {
	client := fixtureServer(t, http.StatusOK, `{}`)

	assert.Equal(t, KindInvalidSymbol, fetchKind(t, client))
}

func TestFetch_MissingSeriesField_NoData(t *testing.T) {
	client := fixtureServer(t, http.StatusOK, `{"Meta Data": {"2. Symbol": "AAPL"}}`)

	assert.Equal(t, KindNoData, fetchKind(t, client))
}

func TestFetch_NonJSONBody(t *testing.T) {
	client := fixtureServer(t, http.StatusOK, `<html>gateway timeout</html>`)

	assert.Equal(t, KindFetchFailed, fetchKind(t, client))
}

func TestFetch_BadNumericField(t *testing.T) {
	// A single unparseable entry poisons the whole fetch; a partially
	// numeric series must never be returned.
	body := `{"Time Series (Daily)": {
		"2024-01-02": {"1. open": "187.15", "2. high": "188.44", "3. low": "183.89", "4. close": "185.64", "5. volume": "82488700"},
		"2024-01-03": {"1. open": "not-a-number", "2. high": "185.88", "3. low": "183.43", "4. close": "184.25", "5. volume": "58414500"}
	}}`
	client := fixtureServer(t, http.StatusOK, body)

	assert.Equal(t, KindFetchFailed, fetchKind(t, client))
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	client := fixtureServer(t, http.StatusBadGateway, `oops`)

	assert.Equal(t, KindFetchFailed, fetchKind(t, client))
}

func TestFetch_TransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	client := NewClient(srv.URL, "testkey")

	assert.Equal(t, KindFetchFailed, fetchKind(t, client))
}

func TestKindOf_UnknownError(t *testing.T) {
	assert.Equal(t, KindFetchFailed, KindOf(context.DeadlineExceeded))
}
