package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"docquery/internal/errs"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API, used
// as the embedding capability of the RAG pipeline.
type EmbeddingsClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewEmbeddingsClient creates a new embeddings client. Every returned vector
// is validated against EmbeddingDimension.
func NewEmbeddingsClient(baseURL, apiKey, model string) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
// TaskType tells the model whether the input is stored content or a query.
type EmbeddingsRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	TaskType string   `json:"task_type,omitempty"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedText generates an embedding for a single text.
func (c *EmbeddingsClient) EmbedText(ctx context.Context, text string, task TaskType) ([]float32, error) {
	if text == "" {
		return nil, &errs.ValidationError{Field: "text", Message: "cannot be empty"}
	}
	vecs, err := c.EmbedTexts(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates embeddings for the given texts in one batched call.
// The result is aligned index-for-index with texts.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if c.APIKey == "" {
		return nil, &errs.ConfigError{Name: "LLM_API_KEY", Message: "embedding credential is not set"}
	}
	if len(texts) == 0 {
		return nil, &errs.ValidationError{Field: "texts", Message: "cannot be empty"}
	}

	payload := EmbeddingsRequest{
		Model:    c.Model,
		Input:    texts,
		TaskType: string(task),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Upstream(errs.ServiceEmbedding, fmt.Errorf("failed to send request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, errs.Upstream(errs.ServiceEmbedding, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw)))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, errs.Upstream(errs.ServiceEmbedding, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, errs.Upstream(errs.ServiceEmbedding, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data)))
	}

	// Convert []float64 to []float32 and validate size
	result := make([][]float32, len(embeddingsResp.Data))
	for i, data := range embeddingsResp.Data {
		if len(data.Embedding) != EmbeddingDimension {
			return nil, errs.Upstream(errs.ServiceEmbedding, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), EmbeddingDimension))
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}
