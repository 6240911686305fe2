package models

import "strings"

// NormalizeSymbol canonicalizes raw user input into a watchlist symbol.
// Symbols are identified case-insensitively; everything is stored uppercase.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// DailyBar is one trading day's OHLCV record for a symbol
type DailyBar struct {
	Date   string  `json:"date"` // calendar date, "YYYY-MM-DD"
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Series is a symbol plus its daily bars, ascending by date with no
// duplicate dates. Produced fresh on every fetch; never cached.
type Series struct {
	Symbol string     `json:"symbol"`
	Data   []DailyBar `json:"data"`
}
