package embedder

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openaiRequestTimeout = 60 * time.Second

// openaiDimensions maps OpenAI embedding models to their output size.
var openaiDimensions = map[openai.EmbeddingModel]int{
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	openai.AdaEmbeddingV2:  1536,
}

// OpenAI generates embeddings via the OpenAI embeddings API.
type OpenAI struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAI creates a new OpenAI embedder. An empty model selects
// text-embedding-3-small.
func NewOpenAI(apiKey, model string) *OpenAI {
	embedModel := openai.EmbeddingModel(model)
	if model == "" {
		embedModel = openai.SmallEmbedding3
	}

	dimension, ok := openaiDimensions[embedModel]
	if !ok {
		dimension = 1536
	}

	return &OpenAI{
		client:    openai.NewClient(apiKey),
		model:     embedModel,
		dimension: dimension,
	}
}

// Embed generates an embedding for the given text.
func (e *OpenAI) Embed(text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openaiRequestTimeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return resp.Data[0].Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OpenAI) EmbedBatch(texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openaiRequestTimeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension for the configured model.
func (e *OpenAI) Dimension() int {
	return e.dimension
}
