package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatwidget/internal/domain/entity"
)

// maxReplySize bounds a chat reply read from the backend.
const maxReplySize = 1 << 20

// apiClient talks to the backend the way the browser widget does.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
	}
}

// backendError is the error body of the chat route.
type backendError struct {
	Status  int
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *backendError) err() error {
	if e.Message != "" {
		return fmt.Errorf("backend responded %d: %s: %s", e.Status, e.Error, e.Message)
	}
	return fmt.Errorf("backend responded %d: %s", e.Status, e.Error)
}

// Chat posts one message and returns the raw webhook reply.
func (c *apiClient) Chat(ctx context.Context, req entity.ChatRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read chat reply: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		be := &backendError{Status: resp.StatusCode}
		if json.Unmarshal(raw, be) != nil || be.Error == "" {
			be.Error = http.StatusText(resp.StatusCode)
		}
		return nil, be.err()
	}
	return raw, nil
}
