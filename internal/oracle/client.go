// Package oracle talks to the Google Gemini API and converts its free-text
// replies into typed records. All tolerance for the oracle's informal wire
// formats lives here; the rest of the system never sees raw model output.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.1
	DefaultRateLimit   = 30 // requests per minute
)

// Sentinel errors distinguishing the oracle failure modes. Transport errors
// are returned wrapped without a sentinel.
var (
	// ErrEmptyResponse: the call succeeded but the model produced no content.
	ErrEmptyResponse = errors.New("oracle returned an empty response")
	// ErrBlocked: the model refused the prompt (content policy).
	ErrBlocked = errors.New("oracle blocked the request")
)

// Client implements the OracleClient interface over the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = float32(t)
	}
}

// WithRateLimit sets the request rate limit in requests per minute
func WithRateLimit(perMinute int) ClientOption {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini-backed oracle client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:      genaiClient,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		limiter:     rate.NewLimiter(rate.Limit(float64(DefaultRateLimit)/60.0), 1),
		logger:      common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close closes the client
func (c *Client) Close() error {
	// The genai client doesn't have a Close method
	return nil
}

// Generate sends one prompt to the oracle and returns the raw text reply.
func (c *Client) Generate(ctx context.Context, req interfaces.OracleRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	c.logger.Debug().
		Str("model", c.model).
		Bool("search", req.Search).
		Str("schema", string(req.Schema)).
		Msg("Generating content")

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if req.Search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if schema := responseSchema(req.Schema); schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = schema
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractText(result)
}

// extractText pulls the text out of a generate-content response, mapping
// blocked and empty replies to their sentinel errors.
func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("%w: safety", ErrBlocked)
		}
		return "", ErrEmptyResponse
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// responseSchema returns the genai output schema for a structured request,
// or nil for free-text mode.
func responseSchema(kind interfaces.SchemaKind) *genai.Schema {
	switch kind {
	case interfaces.SchemaNewsList:
		return &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":        {Type: genai.TypeString},
					"source":       {Type: genai.TypeString},
					"url":          {Type: genai.TypeString},
					"published_at": {Type: genai.TypeString},
				},
				Required: []string{"title", "source", "url"},
			},
		}
	case interfaces.SchemaPriceList:
		return &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"ticker":   {Type: genai.TypeString},
					"exchange": {Type: genai.TypeString, Enum: []string{"USA", "CANADA"}},
					"price":    {Type: genai.TypeNumber},
				},
				Required: []string{"ticker", "exchange", "price"},
			},
		}
	default:
		return nil
	}
}

// Ensure Client implements OracleClient
var _ interfaces.OracleClient = (*Client)(nil)
