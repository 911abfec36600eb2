package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/edutrading/internal/marketdata/domain"
)

func TestFetchQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "AAPL,MSFT", r.URL.Query().Get("symbols"))

		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [
					{
						"symbol": "AAPL",
						"shortName": "Apple Inc.",
						"regularMarketPrice": 150.25,
						"regularMarketChange": 1.5,
						"regularMarketChangePercent": 1.01,
						"regularMarketVolume": 12345,
						"regularMarketTime": 1767225600,
						"currency": "USD",
						"fullExchangeName": "NasdaqGS"
					},
					{
						"symbol": "MSFT",
						"price": 300.5
					}
				],
				"error": null
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	quotes, err := client.FetchQuotes(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	aapl := quotes[0]
	require.NotNil(t, aapl)
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "Apple Inc.", aapl.Name)
	assert.True(t, aapl.Price.Equal(decimal.NewFromFloat(150.25)))
	assert.Equal(t, int64(12345), aapl.Volume)
	assert.Equal(t, "USD", aapl.Currency)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), aapl.Timestamp)

	// 备用字段名也能解析出价格
	msft := quotes[1]
	require.NotNil(t, msft)
	assert.True(t, msft.Price.Equal(decimal.NewFromFloat(300.5)))
}

func TestFetchQuotesPreservesOrderAndNils(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [{"symbol": "MSFT", "regularMarketPrice": 300}],
				"error": null
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	quotes, err := client.FetchQuotes(context.Background(), []string{"NOPE", "MSFT"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Nil(t, quotes[0])
	require.NotNil(t, quotes[1])
	assert.Equal(t, "MSFT", quotes[1].Symbol)
}

func TestFetchQuoteMissingSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))

		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"timestamp": [1767225600, 1767312000, 1767398400],
					"indicators": {
						"quote": [{
							"open": [100.0, 101.0, null],
							"high": [102.0, 103.0, null],
							"low": [99.0, 100.0, null],
							"close": [101.0, 102.0, null],
							"volume": [1000, 2000, null]
						}]
					}
				}],
				"error": null
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	from := time.Unix(1767225600, 0).UTC()
	to := time.Unix(1767398400, 0).UTC()

	bars, err := client.FetchHistory(context.Background(), "AAPL", domain.Interval1Day, from, to)
	require.NoError(t, err)
	// 第三个数据点收盘价为 null，应被跳过
	require.Len(t, bars, 2)
	assert.Equal(t, from, bars[0].Timestamp)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, int64(2000), bars[1].Volume)
}

func TestFetchHistoryIntervalMapping(t *testing.T) {
	var gotInterval string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"chart": {"result": [{"timestamp": [], "indicators": {"quote": [{}]}}], "error": null}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ctx := context.Background()
	from := time.Now().Add(-time.Hour)
	to := time.Now()

	tests := []struct {
		interval domain.Interval
		want     string
	}{
		{domain.Interval1Hour, "60m"},
		{domain.Interval4Hour, "60m"},
		{domain.Interval1Day, "1d"},
		{domain.Interval1Week, "1wk"},
		{domain.Interval1Month, "1mo"},
	}
	for _, tt := range tests {
		_, err := client.FetchHistory(ctx, "AAPL", tt.interval, from, to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, gotInterval)
	}
}

func TestFetchHistoryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FetchHistory(context.Background(), "NOPE", domain.Interval1Day, time.Unix(0, 0), time.Now())
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))

		fmt.Fprint(w, `{
			"quotes": [
				{"symbol": "AAPL", "shortname": "Apple Inc.", "exchDisp": "NASDAQ", "typeDisp": "Equity"},
				{"symbol": "APLE", "longname": "Apple Hospitality REIT"},
				{"symbol": "NONAME"},
				{"symbol": ""}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	matches, err := client.Search(context.Background(), "apple", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "Apple Inc.", matches[0].Name)
	assert.Equal(t, "NASDAQ", matches[0].Exchange)
	// shortname 缺失时回退 longname，再回退代码本身
	assert.Equal(t, "Apple Hospitality REIT", matches[1].Name)
	assert.Equal(t, "NONAME", matches[2].Name)
}

func TestSearchHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"quotes": [
				{"symbol": "A", "shortname": "A"},
				{"symbol": "B", "shortname": "B"},
				{"symbol": "C", "shortname": "C"}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	matches, err := client.Search(context.Background(), "x", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestGetJSONErrorMapping(t *testing.T) {
	t.Run("server error maps to upstream unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("404 maps to symbol not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
		assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
	})

	t.Run("malformed body maps to upstream unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json")
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"quoteResponse": {"result": [{"symbol": "AAPL", "regularMarketPrice": 1}], "error": null}}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		quotes, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
		require.NoError(t, err)
		require.NotNil(t, quotes[0])
		assert.Equal(t, 2, attempts)
	})
}
