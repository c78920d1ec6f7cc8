// Package websearch scrapes configured supplier and marketplace search pages
// for part listings. Results are best-effort: a failing endpoint contributes
// nothing rather than an error, and everything is cached briefly to keep
// repeat queries off the suppliers' sites.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anaskhan96/soup"

	"github.com/gearhive/gearhive/internal/cache"
	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/observability"
)

// Result is one scraped listing.
type Result struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Price       *float64  `json:"price,omitempty"`
	Supplier    string    `json:"supplier,omitempty"`
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Options tunes a single search call.
type Options struct {
	MaxResults   int
	IncludePrice bool
	// VehicleHint is appended to the query to bias supplier search pages,
	// e.g. "honda cb750".
	VehicleHint string
}

// VehicleInfo is a best-effort vehicle extraction from free text.
type VehicleInfo struct {
	Make  string
	Model string
	Year  int
}

// maxBodyBytes caps how much of a supplier page we read.
const maxBodyBytes = 2 << 20

var (
	priceRe = regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`)
	yearRe  = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)
)

// Client scrapes supplier search endpoints.
type Client struct {
	http       *http.Client
	endpoints  []config.EndpointConfig
	cache      cache.Client
	cacheTTL   time.Duration
	maxResults int
	logger     *observability.Logger
}

// NewClient creates a new web search client.
func NewClient(cfg config.WebSearchConfig, cacheClient cache.Client, logger *observability.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		endpoints:  cfg.Endpoints,
		cache:      cacheClient,
		cacheTTL:   cacheTTL,
		maxResults: maxResults,
		logger:     logger.WithComponent("websearch"),
	}
}

// Search queries every configured endpoint and pools the listings.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > c.maxResults {
		maxResults = c.maxResults
	}

	fullQuery := strings.TrimSpace(query)
	if opts.VehicleHint != "" && !strings.Contains(strings.ToLower(fullQuery), strings.ToLower(opts.VehicleHint)) {
		fullQuery = fullQuery + " " + opts.VehicleHint
	}

	cacheKey := cache.Key("websearch", strings.ToLower(fullQuery))
	if cached := c.checkCache(ctx, cacheKey); cached != nil {
		if len(cached) > maxResults {
			cached = cached[:maxResults]
		}
		return cached, nil
	}

	var results []Result
	for _, ep := range c.endpoints {
		listings, err := c.scrapeEndpoint(ctx, ep, fullQuery)
		if err != nil {
			c.logger.Warn().Err(err).Str("endpoint", ep.Name).Msg("Endpoint scrape failed")
			continue
		}
		results = append(results, listings...)
		if len(results) >= maxResults {
			break
		}
	}

	if opts.IncludePrice {
		priced := results[:0]
		for _, r := range results {
			if r.Price != nil || r.Source != "marketplace" {
				priced = append(priced, r)
			}
		}
		results = priced
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	c.storeCache(ctx, cacheKey, results)

	c.logger.Debug().
		Str("query", fullQuery).
		Int("results", len(results)).
		Msg("Web search complete")

	return results, nil
}

// scrapeEndpoint fetches one supplier search page and extracts listings.
// Endpoints are expected to render results as elements carrying the
// "search-result" class with an anchor and a description paragraph; this
// matches the thin proxy pages GearHive fronts suppliers with.
func (c *Client) scrapeEndpoint(ctx context.Context, ep config.EndpointConfig, query string) ([]Result, error) {
	searchURL := fmt.Sprintf(ep.SearchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "GearHive/1.0 (parts search)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", ep.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ep.Name, err)
	}

	doc := soup.HTMLParse(string(body))
	if doc.Error != nil {
		return nil, fmt.Errorf("parse %s: %w", ep.Name, doc.Error)
	}

	now := time.Now()
	var results []Result
	for _, node := range doc.FindAll("div", "class", "search-result") {
		link := node.Find("a")
		if link.Error != nil {
			continue
		}

		title := strings.TrimSpace(link.Text())
		href := link.Attrs()["href"]
		if title == "" || href == "" {
			continue
		}

		description := ""
		if p := node.Find("p"); p.Error == nil {
			description = strings.TrimSpace(p.FullText())
		}

		r := Result{
			Title:       title,
			URL:         resolveURL(searchURL, href),
			Description: description,
			Supplier:    ep.Supplier,
			Source:      ep.Source,
			FetchedAt:   now,
		}

		if m := priceRe.FindStringSubmatch(node.FullText()); m != nil {
			if price, err := strconv.ParseFloat(m[1], 64); err == nil {
				r.Price = &price
			}
		}

		results = append(results, r)
	}

	return results, nil
}

// ExtractVehicleInfo pulls a make, model, and year out of free text.
func ExtractVehicleInfo(text string) VehicleInfo {
	lower := strings.ToLower(text)
	info := VehicleInfo{}

	for _, make := range knownMakes {
		if strings.Contains(lower, make) {
			info.Make = make
			break
		}
	}
	for _, model := range knownModels {
		if strings.Contains(lower, model) {
			info.Model = model
			break
		}
	}
	if m := yearRe.FindString(lower); m != "" {
		if year, err := strconv.Atoi(m); err == nil {
			info.Year = year
		}
	}
	return info
}

var knownMakes = []string{
	"toyota", "honda", "ford", "chevrolet", "bmw", "mercedes", "audi",
	"volkswagen", "nissan", "mazda", "subaru", "hyundai", "kia", "jeep",
	"dodge", "lexus", "volvo", "porsche", "yamaha", "kawasaki", "suzuki",
	"ducati",
}

var knownModels = []string{
	"civic", "accord", "corolla", "camry", "mustang", "f-150", "silverado",
	"wrangler", "golf", "jetta", "altima", "miata", "impreza", "outback",
	"cb750", "gs500", "ninja", "sportster",
}

func (c *Client) checkCache(ctx context.Context, key string) []Result {
	if c.cache == nil {
		return nil
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached results")
		return nil
	}
	return results
}

func (c *Client) storeCache(ctx context.Context, key string, results []Result) {
	if c.cache == nil || len(results) == 0 {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache results")
	}
}

func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return parsed.ResolveReference(ref).String()
}
