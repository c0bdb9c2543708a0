package models

// HistoryRange selects the span and granularity of a price-history query.
// OneDay requests 15-minute intraday points; all other ranges request daily
// OHLCV bars.
type HistoryRange string

const (
	RangeOneDay   HistoryRange = "1D"
	RangeFiveDays HistoryRange = "5D"
	RangeOneMonth HistoryRange = "1M"
	RangeOneYear  HistoryRange = "1Y"
	RangeFiveYear HistoryRange = "5Y"
	RangeTenYear  HistoryRange = "10Y"
)

// Valid reports whether the range is one of the supported spans.
func (r HistoryRange) Valid() bool {
	switch r {
	case RangeOneDay, RangeFiveDays, RangeOneMonth, RangeOneYear, RangeFiveYear, RangeTenYear:
		return true
	}
	return false
}

// Intraday reports whether the range uses intraday granularity.
func (r HistoryRange) Intraday() bool {
	return r == RangeOneDay
}

// StockSnapshot is the typed result of a full-lookup oracle call. Ticker,
// Name and Price are the essential fields: the parser rejects the whole
// snapshot when any of them is missing. Everything else is best-effort.
type StockSnapshot struct {
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Exchange Exchange `json:"exchange"`
	Price    float64  `json:"price"`

	YearlyDividend *float64 `json:"yearly_dividend,omitempty"`
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	Low52Week      *float64 `json:"low_52_week,omitempty"`
	High52Week     *float64 `json:"high_52_week,omitempty"`
	Profile        string   `json:"profile,omitempty"`
	MarketCap      *string  `json:"market_cap,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`

	History []PricePoint `json:"history,omitempty"`
}

// MetricsUpdate carries the slow-changing fields returned by a metrics-only
// refresh. Every field is nullable: nil means the oracle reported the value
// unavailable, and the previously known value must be preserved.
type MetricsUpdate struct {
	YearlyDividend *float64 `json:"yearly_dividend,omitempty"`
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	Low52Week      *float64 `json:"low_52_week,omitempty"`
	High52Week     *float64 `json:"high_52_week,omitempty"`
	Profile        *string  `json:"profile,omitempty"`
	MarketCap      *string  `json:"market_cap,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
}

// PriceQuote is one entry of a batched price refresh, matched back to a
// holding by exact (Ticker, Exchange).
type PriceQuote struct {
	Ticker   string   `json:"ticker"`
	Exchange Exchange `json:"exchange"`
	Price    float64  `json:"price"`
}

// NewsItem is one article from a structured news query.
type NewsItem struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"` // relative or absolute, as supplied
}
