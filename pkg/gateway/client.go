// Package gateway implements the HTTP client for the retrieval-augmented
// generation backend. The backend owns retrieval, indexing and inference;
// this client only submits queries and lists ingested documents.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	Namespace string `json:"namespace"`
	SessionID string `json:"session_id,omitempty"`
}

// Source is a cited excerpt returned alongside an answer.
type Source struct {
	Source   string  `json:"source"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Internal bool    `json:"internal"`
}

// QueryResponse is the backend's answer to a query. SessionID, when present,
// lets a follow-up query continue the same exchange.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id,omitempty"`
	Sources   []Source `json:"sources,omitempty"`
}

// Document describes one ingested document as reported by the backend.
type Document struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	DocType        string    `json:"doc_type"`
	Namespace      string    `json:"namespace"`
	CreatedAt      time.Time `json:"created_at"`
	ContentPreview string    `json:"content_preview"`
	ChunksCount    int       `json:"chunks_count"`
}

// DocumentList is the body of GET /documents.
type DocumentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Query submits a query in the given namespace, continuing the session
// identified by req.SessionID if set. Non-2xx responses and responses
// missing an answer are errors.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	body, err := c.post(ctx, "/api/query", req)
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal query response: %w", err)
	}
	if resp.Answer == "" {
		return nil, fmt.Errorf("malformed query response: missing answer")
	}
	return &resp, nil
}

// ListDocuments fetches the backend's view of ingested documents.
func (c *Client) ListDocuments(ctx context.Context) (*DocumentList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var list DocumentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document list: %w", err)
	}
	return &list, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return io.ReadAll(resp.Body)
}
