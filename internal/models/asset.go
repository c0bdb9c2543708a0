// Package models defines data structures for Folio
package models

import (
	"fmt"
	"time"
)

// Exchange identifies the listing market for a stock holding.
type Exchange string

const (
	ExchangeUSA    Exchange = "USA"
	ExchangeCanada Exchange = "CANADA"
)

// Currency returns the home currency of the exchange.
func (e Exchange) Currency() Currency {
	if e == ExchangeCanada {
		return CurrencyCAD
	}
	return CurrencyUSD
}

// Valid reports whether the exchange is one of the supported markets.
func (e Exchange) Valid() bool {
	return e == ExchangeUSA || e == ExchangeCanada
}

// Currency is a supported cash currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
)

// Valid reports whether the currency is supported.
func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyCAD
}

// AssetKind discriminates the Asset union.
type AssetKind string

const (
	AssetKindStock AssetKind = "stock"
	AssetKindCash  AssetKind = "cash"
)

// Asset is a holding within an account: either a stock position or a cash
// balance, never both. Kind is the discriminant; exactly one of Stock/Cash
// is non-nil per record.
type Asset struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AccountID string    `json:"account_id"`
	Kind      AssetKind `json:"kind"`

	Stock *StockPosition `json:"stock,omitempty"`
	Cash  *CashPosition  `json:"cash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the union invariant and per-variant field constraints.
func (a *Asset) Validate() error {
	switch a.Kind {
	case AssetKindStock:
		if a.Stock == nil || a.Cash != nil {
			return fmt.Errorf("stock asset must carry exactly the stock variant")
		}
		if a.Stock.Ticker == "" {
			return fmt.Errorf("stock asset requires a ticker")
		}
		if !a.Stock.Exchange.Valid() {
			return fmt.Errorf("unsupported exchange %q", a.Stock.Exchange)
		}
		if a.Stock.Shares < 0 {
			return fmt.Errorf("shares must be non-negative")
		}
		if a.Stock.AvgCost < 0 {
			return fmt.Errorf("average cost must be non-negative")
		}
		return nil
	case AssetKindCash:
		if a.Cash == nil || a.Stock != nil {
			return fmt.Errorf("cash asset must carry exactly the cash variant")
		}
		if !a.Cash.Currency.Valid() {
			return fmt.Errorf("unsupported currency %q", a.Cash.Currency)
		}
		if a.Cash.Amount < 0 {
			return fmt.Errorf("cash amount must be non-negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
}

// DisplayName returns the user-facing name of the asset.
func (a *Asset) DisplayName() string {
	switch a.Kind {
	case AssetKindStock:
		if a.Stock != nil {
			return a.Stock.Name
		}
	case AssetKindCash:
		if a.Cash != nil {
			return a.Cash.Currency.DisplayName()
		}
	}
	return ""
}

// DisplayName returns the cash record's derived display name.
func (c Currency) DisplayName() string {
	switch c {
	case CurrencyCAD:
		return "Canadian Dollars"
	default:
		return "US Dollars"
	}
}

// StockPosition is the stock variant of an Asset. Pointer fields are
// oracle-sourced metrics that may be unavailable; nil means "not known",
// which the reconciler must never overwrite a known value with.
type StockPosition struct {
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Exchange Exchange `json:"exchange"`

	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"` // in the exchange's home currency

	CurrentPrice   float64  `json:"current_price"`
	YearlyDividend *float64 `json:"yearly_dividend,omitempty"`
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	Low52Week      *float64 `json:"low_52_week,omitempty"`
	High52Week     *float64 `json:"high_52_week,omitempty"`
	Profile        string   `json:"profile,omitempty"`
	MarketCap      *string  `json:"market_cap,omitempty"` // free-text label, e.g. "1.2T"
	DividendYield  *float64 `json:"dividend_yield,omitempty"`

	History []PricePoint `json:"history,omitempty"`

	PriceUpdatedAt   time.Time `json:"price_updated_at"`
	MetricsUpdatedAt time.Time `json:"metrics_updated_at"`
}

// CashPosition is the cash variant of an Asset. Same-currency deposits into
// an account accumulate into one record rather than duplicating.
type CashPosition struct {
	Currency Currency `json:"currency"`
	Amount   float64  `json:"amount"`
}

// PricePoint is one entry in an ordered price-history series. Close-only
// points (daily lookups, legacy series) leave the OHLCV fields at zero;
// Label is a calendar day or an intraday timestamp as supplied by the oracle.
type PricePoint struct {
	Label  string  `json:"label"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume,omitempty"`
}
