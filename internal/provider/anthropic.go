package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// AnthropicModel implements Model directly against the Anthropic Messages
// API, grounded on original_source/theseus_agent/model.py's
// AnthropicModel.query — one concrete adapter behind the Model interface,
// without the eino chat-model indirection the teacher used this SDK
// through.
type AnthropicModel struct {
	client      anthropic.Client
	modelName   string
	temperature float64
}

// NewAnthropicModel constructs a Model for the given configuration.
func NewAnthropicModel(args ModelArguments) *AnthropicModel {
	opts := []option.RequestOption{}
	if args.APIKey != "" {
		opts = append(opts, option.WithAPIKey(args.APIKey))
	}
	if args.APIBase != "" {
		opts = append(opts, option.WithBaseURL(args.APIBase))
	}
	return &AnthropicModel{
		client:      anthropic.NewClient(opts...),
		modelName:   args.ModelName,
		temperature: args.Temperature,
	}
}

// Query sends the message history plus system prompt and returns the
// concatenated text content of the reply.
func (m *AnthropicModel) Query(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.modelName),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(m.temperature),
		Messages:    toAnthropicMessages(messages),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		if isRateLimit(err) {
			return "", &RateLimitError{Err: err}
		}
		return "", fmt.Errorf("anthropic query: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func isRateLimit(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
