package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider implements EmbeddingProvider against the OpenAI embeddings API
// (text-embedding-3-small by default, 1536 dimensions).
type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	responses, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error) {
	// TaskType is an Ollama/Gemini concept; OpenAI embeddings take raw input only
	reqBody := openAIEmbeddingRequest{
		Model: p.Model,
		Input: texts,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embedding error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp openAIEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedding count mismatch: got %d, want %d", len(apiResp.Data), len(texts))
	}

	// The API may reorder items; Index restores input order
	results := make([]*EmbeddingResponse, len(texts))
	for _, item := range apiResp.Data {
		values := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			values[i] = float32(v)
		}
		if item.Index < 0 || item.Index >= len(results) {
			return nil, fmt.Errorf("openai embedding index out of range: %d", item.Index)
		}
		results[item.Index] = &EmbeddingResponse{
			Embedding: EmbeddingValues{Values: normalizeVector(values)},
		}
	}

	return results, nil
}
