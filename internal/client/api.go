package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Qqcola/ads-price-compare/internal/api"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

// API is the web server's conversation surface as seen by a chat client.
type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *API) PushConversation(ctx context.Context, req api.PushConversationRequest) error {
	return a.do(ctx, http.MethodPost, "/api/pushConversation", req, nil)
}

func (a *API) UpdateConversation(ctx context.Context, req api.UpdateConversationRequest) error {
	return a.do(ctx, http.MethodPut, "/api/updateConversation", req, nil)
}

func (a *API) FindConversationsByUser(ctx context.Context, userID string) ([]store.Conversation, error) {
	var convs []store.Conversation
	err := a.do(ctx, http.MethodPost, "/api/findConversationByUser", api.FindConversationsRequest{UserID: userID}, &convs)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (a *API) DeleteConversationByID(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodPut, "/api/deleteConversationById", api.DeleteConversationRequest{ID: id}, nil)
}

// SearchItems queries the catalog; results arrive already de-duplicated.
func (a *API) SearchItems(ctx context.Context, q string, limit int) ([]store.Item, error) {
	path := fmt.Sprintf("/api/search?q=%s&limit=%d", url.QueryEscape(q), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}
	var items []store.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return items, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
