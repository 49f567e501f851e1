// Package moderation provides a client for the remote content classification API.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrBatchFailed marks classification errors where no item in the batch
// received a verdict. Callers must treat the whole batch as unmoderated.
var ErrBatchFailed = errors.New("moderation batch failed")

// Client is the moderation API client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new moderation client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ContentItem is a single classifiable unit, either text or an image URL.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// TextItem builds a text content item.
func TextItem(text string) ContentItem {
	return ContentItem{Type: "text", Text: text}
}

// ImageItem builds an image content item.
func ImageItem(url string) ContentItem {
	return ContentItem{Type: "image", URL: url}
}

// ItemResult is the verdict for one submitted item.
type ItemResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

type classifyRequest struct {
	Model string        `json:"model"`
	Input []ContentItem `json:"input"`
}

type classifyResponse struct {
	Results []ItemResult `json:"results"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Classify submits a batch of content items and returns one verdict per
// item, in submission order. Any transport or API failure poisons the
// whole batch and is reported as ErrBatchFailed.
func (c *Client) Classify(ctx context.Context, items []ContentItem) ([]ItemResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(classifyRequest{Model: c.model, Input: items})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrBatchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/moderations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrBatchFailed, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", ErrBatchFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrBatchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, fmt.Errorf("%w: moderation API error [%d]: %s (type: %s)",
				ErrBatchFailed, resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return nil, fmt.Errorf("%w: moderation API error [%d]: %s", ErrBatchFailed, resp.StatusCode, string(respBody))
	}

	var result classifyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrBatchFailed, err)
	}

	if len(result.Results) != len(items) {
		return nil, fmt.Errorf("%w: sent %d items, got %d results", ErrBatchFailed, len(items), len(result.Results))
	}

	return result.Results, nil
}
