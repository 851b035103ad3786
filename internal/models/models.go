// Package models holds the values that flow from the fetchers to the pages.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a single coin price in one quote currency.
type PriceQuote struct {
	Coin     string          `json:"coin"`
	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`
}

// PriceTable is the tabular result of a price fetch, one row per coin.
type PriceTable struct {
	Currency string       `json:"currency"`
	Quotes   []PriceQuote `json:"quotes"`
}

// Columns returns the column headers: coin followed by the currency code.
func (t PriceTable) Columns() []string {
	return []string{"coin", t.Currency}
}

// Rows returns the table body as strings, in quote order.
func (t PriceTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Quotes))
	for _, q := range t.Quotes {
		rows = append(rows, []string{q.Coin, q.Price.String()})
	}
	return rows
}

// Clone returns a deep copy so callers may mutate it freely.
func (t PriceTable) Clone() PriceTable {
	quotes := make([]PriceQuote, len(t.Quotes))
	copy(quotes, t.Quotes)
	return PriceTable{Currency: t.Currency, Quotes: quotes}
}

// SampleTable is the placeholder shown when live prices are unavailable.
func SampleTable(currency string) PriceTable {
	return PriceTable{
		Currency: currency,
		Quotes: []PriceQuote{
			{Coin: "bitcoin", Currency: currency, Price: decimal.NewFromInt(68000)},
			{Coin: "ethereum", Currency: currency, Price: decimal.NewFromInt(3500)},
		},
	}
}

// WeatherObservation is one reading of current conditions.
type WeatherObservation struct {
	Timestamp   time.Time `json:"time"`
	Temperature float64   `json:"temperature"` // °C
	WindSpeed   float64   `json:"wind"`        // m/s
}
