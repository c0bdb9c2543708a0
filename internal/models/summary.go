package models

// PortfolioSummary holds aggregate valuation over a set of holdings, in USD.
// It is derived on every read and never persisted.
//
// DayGainLoss is part of the shape for the front-end but is not computed
// from real intraday deltas; it is always zero.
type PortfolioSummary struct {
	MarketValue float64 `json:"market_value"`
	TotalCost   float64 `json:"total_cost"`
	GainLoss    float64 `json:"gain_loss"`
	DayGainLoss float64 `json:"day_gain_loss"`
	ReturnPct   float64 `json:"return_pct"`
}
