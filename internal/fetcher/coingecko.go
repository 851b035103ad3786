package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"live-dashboard/internal/models"
)

const defaultCoinGeckoBase = "https://api.coingecko.com/api/v3"

// PriceOptions parameterise the CoinGecko simple-price source.
type PriceOptions struct {
	BaseURL  string
	Coins    []string
	Currency string
}

// PriceSource fetches coin prices from CoinGecko.
type PriceSource struct {
	opts   PriceOptions
	client *Client
}

// NewPriceSource builds a price source on top of client.
func NewPriceSource(opts PriceOptions, client *Client) *PriceSource {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCoinGeckoBase
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &PriceSource{opts: opts, client: client}
}

// Currency is the quote currency of every fetched table.
func (s *PriceSource) Currency() string { return s.opts.Currency }

// URL is the full request URL; it doubles as the cache key.
func (s *PriceSource) URL() string {
	return BuildPriceURL(s.opts.BaseURL, s.opts.Coins, s.opts.Currency)
}

// FetchPrices performs one request and decodes the price table.
func (s *PriceSource) FetchPrices(ctx context.Context) Outcome[models.PriceTable] {
	raw := s.client.Fetch(ctx, s.URL())
	return Map(raw, func(payload json.RawMessage) (models.PriceTable, error) {
		return DecodePrices(payload, s.opts.Currency)
	}, Reasoner(s.client.opts.Label))
}

// BuildPriceURL renders the simple/price endpoint for the given coin ids.
func BuildPriceURL(base string, coins []string, currency string) string {
	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		if c = strings.TrimSpace(c); c != "" {
			ids = append(ids, url.QueryEscape(c))
		}
	}
	return fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", base, strings.Join(ids, ","), url.QueryEscape(currency))
}

// DecodePrices turns {"bitcoin":{"usd":68000}} into a table sorted by coin id.
func DecodePrices(payload []byte, currency string) (models.PriceTable, error) {
	var body map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(payload, &body); err != nil {
		return models.PriceTable{}, &ParseError{Err: err}
	}

	coins := make([]string, 0, len(body))
	for coin := range body {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	table := models.PriceTable{Currency: currency, Quotes: make([]models.PriceQuote, 0, len(coins))}
	for _, coin := range coins {
		price, ok := body[coin][currency]
		if !ok {
			return models.PriceTable{}, &ParseError{Err: fmt.Errorf("coin %q has no %s price", coin, currency)}
		}
		table.Quotes = append(table.Quotes, models.PriceQuote{Coin: coin, Currency: currency, Price: price})
	}
	return table, nil
}
