package ml

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

// TextEmbedder generates text embeddings with the same model used for the
// catalog, so mood vectors and movie vectors live in one space.
type TextEmbedder struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *logrus.Logger
}

func NewTextEmbedder(cfg *config.OpenAIConfig, logger *logrus.Logger) *TextEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	return &TextEmbedder{
		client:     openai.NewClient(opts...),
		model:      openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions: cfg.EmbeddingDimensions,
		logger:     logger,
	}
}

func (e *TextEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *TextEmbedder) Embed(ctx context.Context, text string) (models.Vector, error) {
	params := openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	raw := resp.Data[0].Embedding
	vec := make(models.Vector, len(raw))
	copy(vec, raw)
	return vec, nil
}
