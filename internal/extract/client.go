// Package extract turns a raw voice or receipt blob into candidate
// expense records by calling the Gemini API. The model is treated as an
// opaque oracle: it is instructed to emit strict JSON, but everything it
// returns is defensively cleaned, validated and defaulted before use.
package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ysaito/kakeibo/internal/expense"
)

// DefaultModel is the Gemini model used for extraction.
const DefaultModel = "gemini-2.5-flash"

// Media is one user-submitted blob, audio or image.
type Media struct {
	MIMEType string
	Data     []byte
}

// Client calls the Gemini API and decodes its output into records.
type Client struct {
	genai    *genai.Client
	model    string
	template []expense.Record
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the Gemini model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithFixedExpenseTemplate overrides the fixed-expense records embedded
// in the prompt. The template is configuration, not extraction logic:
// the oracle is told to return it verbatim when the trigger phrase is
// heard.
func WithFixedExpenseTemplate(records []expense.Record) Option {
	return func(c *Client) {
		c.template = records
	}
}

// NewClient creates an extraction client for the given API key.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}

	c := &Client{
		genai:    gc,
		model:    DefaultModel,
		template: FixedExpenseTemplate(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Extract sends the media blob plus instructions to the model and
// returns normalized candidate records. promptContext carries the
// current budget digest; pass "" when no ledger context is available.
func (c *Client) Extract(ctx context.Context, media Media, promptContext string) ([]expense.Record, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(promptContext, c.template)},
				{
					InlineData: &genai.Blob{
						MIMEType: media.MIMEType,
						Data:     media.Data,
					},
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("extract: empty response from model")
	}

	records, err := DecodeRecords(rawText)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return records, nil
}
