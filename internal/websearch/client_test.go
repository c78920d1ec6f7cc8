package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearhive/gearhive/internal/cache"
	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/observability"
)

const resultsPage = `<html><body>
<div class="search-result">
  <a href="/parts/brake-pads-123">Front Brake Pads</a>
  <p>Ceramic pads for Honda Civic, $45.99</p>
</div>
<div class="search-result">
  <a href="https://supplier.example.com/parts/rotor">Brake Rotor</a>
  <p>Vented rotor, fits 2012-2015</p>
</div>
<div class="search-result">
  <a href=""></a>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc, withCache bool) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var cacheClient cache.Client
	if withCache {
		cacheClient = cache.NewMemoryClient(100)
	}

	cfg := config.WebSearchConfig{
		Enabled:    true,
		Timeout:    5 * time.Second,
		MaxResults: 10,
		CacheTTL:   time.Minute,
		Endpoints: []config.EndpointConfig{{
			Name:      "test",
			SearchURL: server.URL + "/search?q=%s",
			Supplier:  "rockauto",
			Source:    "retailer",
		}},
	}

	return NewClient(cfg, cacheClient, observability.NopLogger()), server
}

func TestSearch_ParsesListings(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage))
	}, false)

	results, err := client.Search(context.Background(), "brake pads", Options{})
	require.NoError(t, err)
	require.Len(t, results, 2, "the listing without title and href is dropped")

	assert.Equal(t, "Front Brake Pads", results[0].Title)
	assert.Equal(t, server.URL+"/parts/brake-pads-123", results[0].URL, "relative links resolve against the endpoint")
	assert.Contains(t, results[0].Description, "Ceramic pads")
	require.NotNil(t, results[0].Price)
	assert.InDelta(t, 45.99, *results[0].Price, 0.001)
	assert.Equal(t, "rockauto", results[0].Supplier)
	assert.Equal(t, "retailer", results[0].Source)

	assert.Equal(t, "https://supplier.example.com/parts/rotor", results[1].URL)
	assert.Nil(t, results[1].Price, "years are not mistaken for prices")
}

func TestSearch_QueryIsEscaped(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte("<html></html>"))
	}, false)

	_, err := client.Search(context.Background(), "brake pads", Options{VehicleHint: "honda civic"})
	require.NoError(t, err)
	assert.Equal(t, "brake pads honda civic", gotQuery)
}

func TestSearch_CachesResults(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(resultsPage))
	}, true)

	ctx := context.Background()
	first, err := client.Search(ctx, "brake pads", Options{})
	require.NoError(t, err)

	second, err := client.Search(ctx, "brake pads", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second search served from cache")
	assert.Equal(t, len(first), len(second))
}

func TestSearch_EndpointFailureIsNotFatal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	results, err := client.Search(context.Background(), "brake pads", Options{})
	require.NoError(t, err, "a failing endpoint degrades to no results")
	assert.Empty(t, results)
}

func TestSearch_IncludePriceFiltersMarketplace(t *testing.T) {
	page := `<html><body>
<div class="search-result"><a href="/a">Unpriced listing</a><p>no price here</p></div>
</body></html>`
	server := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(page)) }
	}())
	t.Cleanup(server.Close)

	cfg := config.WebSearchConfig{
		MaxResults: 10,
		Endpoints: []config.EndpointConfig{{
			Name:      "bay",
			SearchURL: server.URL + "/?q=%s",
			Source:    "marketplace",
		}},
	}
	client := NewClient(cfg, nil, observability.NopLogger())

	results, err := client.Search(context.Background(), "widget", Options{IncludePrice: true})
	require.NoError(t, err)
	assert.Empty(t, results, "unpriced marketplace listings are dropped when prices were requested")
}

func TestExtractVehicleInfo(t *testing.T) {
	info := ExtractVehicleInfo("selling my 2015 Honda Civic, brakes recently done")
	assert.Equal(t, "honda", info.Make)
	assert.Equal(t, "civic", info.Model)
	assert.Equal(t, 2015, info.Year)

	info = ExtractVehicleInfo("cb750 cafe racer project")
	assert.Equal(t, "", info.Make)
	assert.Equal(t, "cb750", info.Model)
	assert.Equal(t, 0, info.Year)

	info = ExtractVehicleInfo("nothing vehicular here")
	assert.Equal(t, VehicleInfo{}, info)
}
