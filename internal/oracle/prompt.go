package oracle

import (
	"fmt"
	"strings"

	"github.com/foliolabs/folio/internal/models"
)

// Wire format conventions used across prompts. Multi-character separators
// avoid collisions with decimal points, currency text, and commas that show
// up in the model's natural output; timestamps may contain ':' so the field
// separator is only safe when records are parsed right-to-left.
const (
	PairSep   = "|||" // joins key:::value pairs
	KVSep     = ":::" // joins key and value within a pair
	RecordSep = ";"   // joins OHLCV records in a series
	FieldSep  = ":"   // joins fields within an OHLCV record
	Sentinel  = "N/A" // the oracle's convention for an unavailable field
)

// fullLookupKeys is the fixed key set requested by a full lookup.
var fullLookupKeys = []string{
	"ticker", "name", "price", "yearlyDividend", "trailingPE", "forwardPE",
	"low52Week", "high52Week", "profile", "marketCap", "dividendYield", "history",
}

// metricsKeys is the narrower key set for periodic background refresh of
// slow-changing fields. No name or price: those are covered by the batched
// price sync.
var metricsKeys = []string{
	"yearlyDividend", "trailingPE", "forwardPE", "low52Week", "high52Week",
	"profile", "marketCap", "dividendYield",
}

func exchangeLabel(e models.Exchange) string {
	if e == models.ExchangeCanada {
		return "a Canadian exchange (TSX or TSXV)"
	}
	return "a US exchange (NYSE or NASDAQ)"
}

// FullLookupPrompt requests every field needed to create a new holding for
// the stock best matching query on the given exchange.
func FullLookupPrompt(query string, exchange models.Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find the stock or ETF listed on %s that best matches %q.\n", exchangeLabel(exchange), query)
	fmt.Fprintf(&b, "Reply with exactly these keys, each as key%svalue, with pairs joined by %q and nothing else:\n", KVSep, PairSep)
	fmt.Fprintf(&b, "%s\n", strings.Join(fullLookupKeys, ", "))
	b.WriteString("Rules:\n")
	b.WriteString("- ticker: the uppercase listing symbol.\n")
	b.WriteString("- price: the latest trading price as a plain number, no currency symbol.\n")
	b.WriteString("- yearlyDividend, trailingPE, forwardPE, low52Week, high52Week, dividendYield: plain numbers.\n")
	b.WriteString("- profile: one short paragraph describing the company.\n")
	b.WriteString("- marketCap: a short label such as 1.2T or 850B.\n")
	fmt.Fprintf(&b, "- history: the last month of daily closes as date%sclose pairs joined by %q, oldest first.\n", FieldSep, RecordSep)
	fmt.Fprintf(&b, "- If a value is unavailable, use the literal %s.\n", Sentinel)
	return b.String()
}

// BatchPricesPrompt requests price-only updates for every (ticker, exchange)
// pair in one call. When jsonMode is true the response is requested as a
// JSON array matching the price-list schema; otherwise as delimited text.
func BatchPricesPrompt(pairs []models.PriceQuote, jsonMode bool) string {
	var b strings.Builder
	b.WriteString("Report the latest trading price for each of these listings:\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "- %s on %s\n", p.Ticker, exchangeLabel(p.Exchange))
	}
	if jsonMode {
		b.WriteString("Reply as a JSON array of objects with keys ticker, exchange (USA or CANADA), and price (number).\n")
	} else {
		fmt.Fprintf(&b, "Reply with one pair per listing as TICKER/EXCHANGE%sprice, pairs joined by %q.\n", KVSep, PairSep)
		b.WriteString("EXCHANGE is USA or CANADA; price is a plain number with no currency symbol.\n")
	}
	b.WriteString("Do not include any listing you cannot price.\n")
	return b.String()
}

// MetricsPrompt requests only the slow-changing metrics of a single holding.
func MetricsPrompt(ticker string, exchange models.Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For the stock %s listed on %s, reply with exactly these keys, each as key%svalue, pairs joined by %q and nothing else:\n",
		ticker, exchangeLabel(exchange), KVSep, PairSep)
	fmt.Fprintf(&b, "%s\n", strings.Join(metricsKeys, ", "))
	fmt.Fprintf(&b, "Numbers must be plain numbers. marketCap is a short label such as 1.2T. If a value is unavailable, use the literal %s.\n", Sentinel)
	return b.String()
}

// HistoryPrompt requests a price-history series for the range. The one-day
// range asks for 15-minute intraday bars; every other range asks for daily
// OHLCV bars.
func HistoryPrompt(ticker string, exchange models.Exchange, r models.HistoryRange) string {
	var b strings.Builder
	if r.Intraday() {
		fmt.Fprintf(&b, "Report today's intraday prices at 15-minute intervals for %s on %s.\n", ticker, exchangeLabel(exchange))
	} else {
		fmt.Fprintf(&b, "Report the daily price history over the last %s for %s on %s.\n", rangeWording(r), ticker, exchangeLabel(exchange))
	}
	fmt.Fprintf(&b, "Reply with one record per bar as label%sopen%shigh%slow%sclose%svolume, records joined by %q, oldest first, and nothing else.\n",
		FieldSep, FieldSep, FieldSep, FieldSep, FieldSep, RecordSep)
	if r.Intraday() {
		b.WriteString("label is the bar's time as HH:MM.\n")
	} else {
		b.WriteString("label is the bar's date as YYYY-MM-DD.\n")
	}
	b.WriteString("open, high, low, close are plain numbers; volume is an integer.\n")
	return b.String()
}

func rangeWording(r models.HistoryRange) string {
	switch r {
	case models.RangeFiveDays:
		return "5 trading days"
	case models.RangeOneMonth:
		return "month"
	case models.RangeOneYear:
		return "year"
	case models.RangeFiveYear:
		return "5 years"
	case models.RangeTenYear:
		return "10 years"
	default:
		return "month"
	}
}

// NewsPrompt requests the top five recent articles about a ticker in
// structured-schema output.
func NewsPrompt(ticker string, exchange models.Exchange) string {
	return fmt.Sprintf(
		"Find the 5 most recent and significant news articles about the stock %s listed on %s. "+
			"For each article report its title, the publishing source, the article URL, and when it was published "+
			"(a relative time like \"2 hours ago\" or an absolute date are both fine).",
		ticker, exchangeLabel(exchange))
}

// ExchangeRatePrompt requests a single scalar conversion rate.
func ExchangeRatePrompt(from, to models.Currency) string {
	return fmt.Sprintf(
		"What is the current %s to %s exchange rate? Reply with only the numeric rate, no words or formatting.",
		from, to)
}

// ChartPrompt asks the oracle to draw a price chart as an inline SVG. The
// reply may wrap the SVG in commentary; the parser extracts the first
// <svg>...</svg> span.
func ChartPrompt(ticker string, exchange models.Exchange, r models.HistoryRange) string {
	return fmt.Sprintf(
		"Draw a clean line chart of the %s price history of %s (listed on %s) as a standalone SVG image, "+
			"900 by 400 pixels, with labeled axes. Reply with the SVG markup.",
		rangeWording(r), ticker, exchangeLabel(exchange))
}
