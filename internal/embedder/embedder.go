// Package embedder provides embedding backends satisfying the
// veclite.Embedder interface, for collections that should not use the
// veclite.yaml default provider.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	defaultOllamaModel = "nomic-embed-text"
	ollamaDimension    = 768
)

// modelDimensions maps known Ollama embedding models to their output size.
var modelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// Ollama generates embeddings via a local Ollama server.
type Ollama struct {
	host       string
	model      string
	dimension  int
	httpClient *http.Client
}

// OllamaConfig holds configuration for the Ollama embedder.
type OllamaConfig struct {
	Host  string
	Model string
	// Dimension overrides the model's known output size. Needed for models
	// not in the built-in table.
	Dimension int
}

// NewOllama creates a new Ollama embedder.
func NewOllama(cfg OllamaConfig) *Ollama {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		if d, ok := modelDimensions[model]; ok {
			dimension = d
		} else {
			dimension = ollamaDimension
		}
	}

	return &Ollama{
		host:      cfg.Host,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ollamaRequest is the request body for Ollama embedding API.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaResponse is the response from Ollama embedding API.
type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed generates an embedding for the given text.
func (e *Ollama) Embed(text string) ([]float32, error) {
	req := ollamaRequest{
		Model:  e.model,
		Prompt: text,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", e.host)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	// Convert float64 to float32
	embedding := make([]float32, len(ollamaResp.Embedding))
	for i, v := range ollamaResp.Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *Ollama) EmbedBatch(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.Embed(text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension for the configured model.
func (e *Ollama) Dimension() int {
	return e.dimension
}

// Ping checks if Ollama is available and has the required model.
func (e *Ollama) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/tags", e.host)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("connect to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	// Check if the model is available
	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return fmt.Errorf("decode tags response: %w", err)
	}

	for _, model := range tagsResp.Models {
		if model.Name == e.model || model.Name == e.model+":latest" {
			slog.Debug("found embedding model", "model", model.Name)
			return nil
		}
	}

	return fmt.Errorf("model %s not found in Ollama (run: ollama pull %s)", e.model, e.model)
}

// CosineSimilarity computes the cosine similarity between two embeddings.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize normalizes an embedding to unit length.
func Normalize(embedding []float32) []float32 {
	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return embedding
	}

	norm = math.Sqrt(norm)
	result := make([]float32, len(embedding))
	for i, v := range embedding {
		result[i] = float32(float64(v) / norm)
	}

	return result
}
