package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/foliolabs/folio/internal/models"
)

// ErrNoData: a response failed the essential-field gate. New holdings are
// all-or-nothing; a half-populated record is never created.
var ErrNoData = errors.New("oracle response did not contain the essential fields")

// Fields is a case-insensitive view of a delimited key:::value response.
// Keys are stored lowercase; values are trimmed. A key whose value is the
// "N/A" sentinel (any case) is treated as absent.
type Fields map[string]string

// ParseFields splits a delimited response into Fields.
func ParseFields(raw string) Fields {
	fields := make(Fields)
	for _, pair := range strings.Split(raw, PairSep) {
		key, value, ok := strings.Cut(pair, KVSep)
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if strings.EqualFold(value, Sentinel) {
			continue
		}
		fields[key] = value
	}
	return fields
}

// Str returns the value for key, or nil when absent.
func (f Fields) Str(key string) *string {
	v, ok := f[strings.ToLower(key)]
	if !ok {
		return nil
	}
	return &v
}

// Float returns the numeric value for key, or nil when absent or unparseable.
func (f Fields) Float(key string) *float64 {
	v, ok := f[strings.ToLower(key)]
	if !ok {
		return nil
	}
	return parseFloat(v)
}

// parseFloat coerces a string to a finite float. Thousands separators are
// stripped first; any failure yields nil, never an error.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseStockSnapshot converts a full-lookup response into a StockSnapshot.
// Ticker, name, and price are mandatory: if any is missing the whole lookup
// fails with ErrNoData. Every other field is best-effort nullable.
func ParseStockSnapshot(raw string, exchange models.Exchange) (*models.StockSnapshot, error) {
	fields := ParseFields(raw)

	ticker := fields.Str("ticker")
	name := fields.Str("name")
	price := fields.Float("price")
	if price == nil {
		price = fields.Float("currentPrice")
	}
	if ticker == nil || name == nil || price == nil {
		return nil, ErrNoData
	}

	snapshot := &models.StockSnapshot{
		Ticker:         strings.ToUpper(*ticker),
		Name:           *name,
		Exchange:       exchange,
		Price:          *price,
		YearlyDividend: fields.Float("yearlyDividend"),
		TrailingPE:     fields.Float("trailingPE"),
		ForwardPE:      fields.Float("forwardPE"),
		Low52Week:      fields.Float("low52Week"),
		High52Week:     fields.Float("high52Week"),
		MarketCap:      fields.Str("marketCap"),
		DividendYield:  fields.Float("dividendYield"),
	}
	if profile := fields.Str("profile"); profile != nil {
		snapshot.Profile = *profile
	}
	if history := fields.Str("history"); history != nil {
		snapshot.History = ParseCloseSeries(*history)
	}

	return snapshot, nil
}

// ParseMetrics converts a metrics-only refresh response. Nothing is
// mandatory: a response with no usable fields simply means nothing to update.
func ParseMetrics(raw string) *models.MetricsUpdate {
	fields := ParseFields(raw)
	return &models.MetricsUpdate{
		YearlyDividend: fields.Float("yearlyDividend"),
		TrailingPE:     fields.Float("trailingPE"),
		ForwardPE:      fields.Float("forwardPE"),
		Low52Week:      fields.Float("low52Week"),
		High52Week:     fields.Float("high52Week"),
		Profile:        fields.Str("profile"),
		MarketCap:      fields.Str("marketCap"),
		DividendYield:  fields.Float("dividendYield"),
	}
}

// ParseOHLCVSeries converts a semicolon-joined series of
// label:open:high:low:close:volume records, preserving order. Each record
// needs at least 6 colon-delimited tokens and is parsed from the right so
// labels containing ':' (intraday timestamps) survive: the rightmost five
// tokens are the numeric fields, everything before them is rejoined as the
// label. Records with missing or non-finite numbers are dropped silently.
func ParseOHLCVSeries(raw string) []models.PricePoint {
	var points []models.PricePoint
	for _, record := range strings.Split(raw, RecordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		tokens := strings.Split(record, FieldSep)
		if len(tokens) < 6 {
			continue
		}
		n := len(tokens)
		volume := parseFloat(tokens[n-1])
		closeP := parseFloat(tokens[n-2])
		low := parseFloat(tokens[n-3])
		high := parseFloat(tokens[n-4])
		open := parseFloat(tokens[n-5])
		if volume == nil || closeP == nil || low == nil || high == nil || open == nil {
			continue
		}
		label := strings.TrimSpace(strings.Join(tokens[:n-5], FieldSep))
		if label == "" {
			continue
		}
		points = append(points, models.PricePoint{
			Label:  label,
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closeP,
			Volume: int64(*volume),
		})
	}
	return points
}

// FormatOHLCVSeries renders points back into the wire format. Used by tests
// and the chart fallback path.
func FormatOHLCVSeries(points []models.PricePoint) string {
	records := make([]string, 0, len(points))
	for _, p := range points {
		records = append(records, fmt.Sprintf("%s:%g:%g:%g:%g:%d", p.Label, p.Open, p.High, p.Low, p.Close, p.Volume))
	}
	return strings.Join(records, RecordSep)
}

// ParseCloseSeries converts a semicolon-joined series of label:close pairs.
// The close is the rightmost token; malformed pairs are dropped silently.
func ParseCloseSeries(raw string) []models.PricePoint {
	var points []models.PricePoint
	for _, record := range strings.Split(raw, RecordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		idx := strings.LastIndex(record, FieldSep)
		if idx <= 0 {
			continue
		}
		closeP := parseFloat(record[idx+1:])
		label := strings.TrimSpace(record[:idx])
		if closeP == nil || label == "" {
			continue
		}
		points = append(points, models.PricePoint{Label: label, Close: *closeP})
	}
	return points
}

// ExtractSVG scans raw oracle output for the first <svg>...</svg> span. The
// model routinely wraps the image in commentary or code fences; only the
// span itself is returned. Empty string when absent.
func ExtractSVG(raw string) string {
	lower := strings.ToLower(raw)
	start := strings.Index(lower, "<svg")
	if start < 0 {
		return ""
	}
	end := strings.Index(lower[start:], "</svg>")
	if end < 0 {
		return ""
	}
	return raw[start : start+end+len("</svg>")]
}

// ParseNewsJSON decodes a structured news response. Parse failures are
// surfaced, not guessed around.
func ParseNewsJSON(raw string) ([]models.NewsItem, error) {
	var items []models.NewsItem
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}
	return items, nil
}

// ParseBatchPricesJSON decodes a structured batch-price response. Entries
// with an unknown exchange or non-positive price are discarded; a JSON parse
// failure is surfaced.
func ParseBatchPricesJSON(raw string) ([]models.PriceQuote, error) {
	var quotes []models.PriceQuote
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &quotes); err != nil {
		return nil, fmt.Errorf("failed to parse batch price response: %w", err)
	}
	return normalizeQuotes(quotes), nil
}

// ParseBatchPricesText decodes the delimited form of a batch-price response:
// TICKER/EXCHANGE:::price pairs joined by the pair separator. Malformed
// pairs are dropped silently — a price refresh that updates nothing is not
// an error.
func ParseBatchPricesText(raw string) []models.PriceQuote {
	var quotes []models.PriceQuote
	for _, pair := range strings.Split(raw, PairSep) {
		key, value, ok := strings.Cut(pair, KVSep)
		if !ok {
			continue
		}
		ticker, exchange, ok := strings.Cut(strings.TrimSpace(key), "/")
		if !ok {
			continue
		}
		price := parseFloat(value)
		if price == nil {
			continue
		}
		quotes = append(quotes, models.PriceQuote{
			Ticker:   strings.ToUpper(strings.TrimSpace(ticker)),
			Exchange: models.Exchange(strings.ToUpper(strings.TrimSpace(exchange))),
			Price:    *price,
		})
	}
	return normalizeQuotes(quotes)
}

func normalizeQuotes(quotes []models.PriceQuote) []models.PriceQuote {
	valid := quotes[:0]
	for _, q := range quotes {
		q.Ticker = strings.ToUpper(strings.TrimSpace(q.Ticker))
		q.Exchange = models.Exchange(strings.ToUpper(strings.TrimSpace(string(q.Exchange))))
		if q.Ticker == "" || !q.Exchange.Valid() || q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

// ParseRate extracts the scalar exchange rate from a reply. The prompt asks
// for a bare number but the model sometimes adds words; the first parseable
// token wins.
func ParseRate(raw string) (float64, bool) {
	if v := parseFloat(raw); v != nil && *v > 0 {
		return *v, true
	}
	for _, token := range strings.Fields(raw) {
		if v := parseFloat(strings.Trim(token, ".,;")); v != nil && *v > 0 {
			return *v, true
		}
	}
	return 0, false
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
