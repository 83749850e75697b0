// Package retrieval queries the hosted vector index that backs the
// assistant's knowledge base. Indexing and embedding generation happen in
// external services; this client only embeds the question and runs a
// similarity query.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medchat/internal/config"

	"google.golang.org/genai"
)

const queryTimeout = 30 * time.Second

// Embedder turns a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type genaiEmbedder struct {
	client *genai.Client
	model  string
}

func (e *genaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	return resp.Embeddings[0].Values, nil
}

// Match is one scored chunk returned by the index.
type Match struct {
	Score  float64
	Text   string
	Source string
}

// Client talks to a Pinecone-style index over its REST query endpoint.
type Client struct {
	httpClient *http.Client
	indexURL   string
	apiKey     string
	namespace  string
	topK       int
	embedder   Embedder
}

// NewClient builds the retrieval client. Embeddings use the gemini API key
// from the provider config; the index has its own key.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	ret := cfg.Retrieval
	if ret.IndexURL == "" {
		return nil, errors.New("retrieval index_url is required")
	}
	embedModel := ret.EmbeddingModel
	if embedModel == "" {
		embedModel = "gemini-embedding-001"
	}
	gemCfg, ok := cfg.Providers["gemini"]
	if !ok || gemCfg.APIKey == "" {
		return nil, errors.New("gemini provider api_key is required for embeddings")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: gemCfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	return &Client{
		httpClient: &http.Client{Timeout: queryTimeout},
		indexURL:   strings.TrimRight(ret.IndexURL, "/"),
		apiKey:     ret.APIKey,
		namespace:  ret.Namespace,
		topK:       ret.TopK,
		embedder:   &genaiEmbedder{client: client, model: embedModel},
	}, nil
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Search embeds the query and returns the top matching chunks.
func (c *Client) Search(ctx context.Context, query string) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(queryRequest{
		Vector:          vector,
		TopK:            c.topK,
		Namespace:       c.namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index query failed: status %d", resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	matches := make([]Match, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		text := m.Metadata["text"]
		if text == "" {
			continue
		}
		source := m.Metadata["source"]
		if source == "" {
			source = "Unknown"
		}
		matches = append(matches, Match{Score: m.Score, Text: text, Source: source})
	}
	return matches, nil
}

// Serialize renders matches as the context block handed to the model.
func Serialize(matches []Match) string {
	if len(matches) == 0 {
		return "No relevant medical information found in the knowledge base."
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", m.Source, m.Text))
	}
	return strings.Join(parts, "\n\n")
}
