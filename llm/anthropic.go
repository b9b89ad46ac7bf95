package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicGateway struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicGateway(apiKey string) (*AnthropicGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicGateway{
		client: &client,
		model:  anthropic.ModelClaude4Sonnet20250514,
	}, nil
}

func (g *AnthropicGateway) Complete(ctx context.Context, req Request) (string, error) {
	var messages []anthropic.MessageParam
	for _, turn := range req.Turns {
		if turn.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	response, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       g.model,
		MaxTokens:   int64(maxTokens),
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var content strings.Builder
	for _, block := range response.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(textBlock.Text)
		}
	}

	result := strings.TrimSpace(content.String())
	if result == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	return result, nil
}
