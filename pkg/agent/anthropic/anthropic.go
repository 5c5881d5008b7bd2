// Package anthropic provides an agent.Responder backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aretw0/turnstile/pkg/domain"
)

// Options configures the Anthropic responder.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Responder asks a Claude model for the next action.
type Responder struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0,
		MaxTokens:   1024,
	}
}

// New creates a responder using the official client.
// Without an APIKey the client reads ANTHROPIC_API_KEY.
func New(optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Responder{client: &client, opts: opts}
}

// NewFromClient creates a responder from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{client: client, opts: opts}
}

func (r *Responder) Name() string { return "anthropic/" + string(r.opts.Model) }

func (r *Responder) Respond(ctx context.Context, history []domain.Message) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case domain.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       r.opts.Model,
		Messages:    messages,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: anthropic.Float(r.opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}
