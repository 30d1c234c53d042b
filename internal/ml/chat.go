package ml

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
)

// ChatClient wraps the OpenAI chat completion API for the mood pipeline.
type ChatClient struct {
	client      openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
	logger      *logrus.Logger
}

func NewChatClient(cfg *config.OpenAIConfig, logger *logrus.Logger) *ChatClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	return &ChatClient{
		client:      openai.NewClient(opts...),
		model:       openai.ChatModel(cfg.ChatModel),
		maxTokens:   600,
		temperature: 0.7,
		logger:      logger,
	}
}

// Complete sends a single system+user exchange and returns the assistant text.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               c.model,
		Temperature:         param.NewOpt(c.temperature),
		MaxCompletionTokens: param.NewOpt(c.maxTokens),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat completion")
	}

	return completion.Choices[0].Message.Content, nil
}
