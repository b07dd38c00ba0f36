package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client is the text-generation surface the strategy pipeline depends on.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// Response is the concatenated text output of a completion.
type Response struct {
	Model string
	Text  string
	Usage Usage
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add accumulates another usage into u.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}

// Temperature is a helper for building Request literals.
func Temperature(t float64) *float64 {
	return &t
}

// AnthropicClient calls the Anthropic Messages API through the official SDK.
type AnthropicClient struct {
	client  sdk.Client
	model   string
	limiter *rate.Limiter
	Stats   *Stats
}

// NewAnthropicClient builds a client. defaultModel is used when a Request
// leaves Model empty. requestsPerSecond <= 0 disables throttling.
func NewAnthropicClient(apiKey, defaultModel string, requestsPerSecond float64) *AnthropicClient {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &AnthropicClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0), // retries are handled by Do
			option.WithRequestTimeout(120*time.Second),
		),
		model:   defaultModel,
		limiter: rate.NewLimiter(limit, 1),
		Stats:   NewStats(time.Hour),
	}
}

// Model returns the default model name.
func (c *AnthropicClient) Model() string {
	return c.model
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "llm: rate limit wait")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.Stats.Record(time.Since(start), Usage{}, err)
		return nil, classifyError(err)
	}
	usage := Usage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	c.Stats.Record(time.Since(start), usage, nil)

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, eris.New("llm: empty response")
	}

	return &Response{
		Model: string(msg.Model),
		Text:  sb.String(),
		Usage: usage,
	}, nil
}

// classifyError marks throttling and server-side failures as retryable.
func classifyError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return eris.Wrapf(err, "llm: status %d", apiErr.StatusCode)
	}
	return eris.Wrap(err, "llm: create message")
}
