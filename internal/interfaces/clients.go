// Package interfaces defines service contracts for Folio
package interfaces

import "context"

// SchemaKind selects a structured JSON output schema for an oracle request.
type SchemaKind string

const (
	SchemaNone      SchemaKind = ""
	SchemaNewsList  SchemaKind = "news_list"
	SchemaPriceList SchemaKind = "price_list"
)

// OracleRequest describes one call to the generative-language oracle.
type OracleRequest struct {
	Prompt string
	// Search enables real-time web grounding for queries that need live data.
	Search bool
	// Schema, when set, requests structured JSON output matching a known schema.
	Schema SchemaKind
}

// OracleClient is the prompt-in/text-out contract with the hosted
// generative-language service. Responses are raw text (or a JSON string in
// structured mode); all parsing tolerance lives behind the oracle package.
type OracleClient interface {
	Generate(ctx context.Context, req OracleRequest) (string, error)
	Close() error
}
