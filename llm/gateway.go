package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ErrGenerationFailed covers both a failed provider call and a response with
// no usable content. The caller decides whether to resubmit; nothing here
// retries.
var ErrGenerationFailed = errors.New("model generation failed")

type Turn struct {
	Role    string
	Content string
}

type Request struct {
	System      string
	Turns       []Turn
	Temperature float64
	MaxTokens   int
}

// Gateway is the single component that crosses the process boundary to a
// generation model. One blocking call per request, no retries, no cache.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type OpenAIGateway struct {
	llm llms.Model
}

func NewOpenAIGateway(apiKey, model string) (*OpenAIGateway, error) {
	client, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIGateway{llm: client}, nil
}

func (g *OpenAIGateway) Complete(ctx context.Context, req Request) (string, error) {
	messageHistory := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, req.System),
	}

	for _, turn := range req.Turns {
		msgType := schema.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			msgType = schema.ChatMessageTypeAI
		}
		messageHistory = append(messageHistory, llms.TextParts(msgType, turn.Content))
	}

	resp, err := g.llm.GenerateContent(ctx, messageHistory,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	return content, nil
}
