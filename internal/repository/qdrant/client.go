package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campusMarket/business/recommend"
	"campusMarket/domain"
	"campusMarket/pkg/config"
)

// Client talks to a qdrant collection over its REST API. It implements
// recommend.VectorIndex.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// NewClient builds the client and verifies the collection exists, so a
// dead index is detected at startup rather than per request.
func NewClient(cfg *config.Config) (*Client, error) {
	c := &Client{
		baseURL:    fmt.Sprintf("http://%s:%s", cfg.Qdrant.Host, cfg.Qdrant.Port),
		apiKey:     cfg.Qdrant.APIKey,
		collection: cfg.Qdrant.Collection,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.collectionURL(""), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build qdrant request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant collection %s unavailable: status %d", c.collection, resp.StatusCode)
	}

	return c, nil
}

type queryRequest struct {
	Query []float32 `json:"query"`
	// The collection stores named vectors; queries address the text one.
	Using          string  `json:"using"`
	Limit          int     `json:"limit"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
	WithPayload    bool    `json:"with_payload"`
}

const textVectorName = "text"

type point struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type queryResponse struct {
	Result struct {
		Points []point `json:"points"`
	} `json:"result"`
}

// Query runs a nearest-neighbor search and maps each point to a hit
// carrying the hydrated catalog item from its payload.
func (c *Client) Query(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]recommend.VectorHit, error) {
	body := queryRequest{
		Query:          vector,
		Using:          textVectorName,
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
		WithPayload:    true,
	}

	var parsed queryResponse
	if err := c.post(ctx, c.collectionURL("/points/query"), body, &parsed); err != nil {
		return nil, err
	}

	hits := make([]recommend.VectorHit, 0, len(parsed.Result.Points))
	for _, p := range parsed.Result.Points {
		item := payloadToItem(p.Payload)
		if item.DBID == 0 {
			continue
		}
		hits = append(hits, recommend.VectorHit{
			DBID:  item.DBID,
			Score: p.Score,
			Item:  item,
		})
	}

	return hits, nil
}

type retrieveRequest struct {
	IDs         []uint64 `json:"ids"`
	WithPayload bool     `json:"with_payload"`
}

type retrieveResponse struct {
	Result []point `json:"result"`
}

// Retrieve fetches points by id. Missing points are silently absent, so
// callers must tolerate partial coverage.
func (c *Client) Retrieve(ctx context.Context, ids []uint64) ([]domain.Item, error) {
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	body := retrieveRequest{IDs: ids, WithPayload: true}

	var parsed retrieveResponse
	if err := c.post(ctx, c.collectionURL("/points"), body, &parsed); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(parsed.Result))
	for _, p := range parsed.Result {
		item := payloadToItem(p.Payload)
		if item.DBID == 0 {
			continue
		}
		items = append(items, *item)
	}

	return items, nil
}

func (c *Client) post(ctx context.Context, url string, body any, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode qdrant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode qdrant response: %w", err)
	}

	return nil
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, suffix)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

// payloadToItem maps a qdrant payload onto the canonical catalog item.
// Payload fields mirror the items table columns.
func payloadToItem(payload map[string]any) *domain.Item {
	item := &domain.Item{}

	item.DBID = asUint64(payload["dbid"])
	item.ExternalID = asString(payload["id"])
	item.Title = asString(payload["title"])
	item.Category = asString(payload["category"])
	item.ThumbnailPath = firstString(payload, "thumbnailPath", "first_thumbnail", "thumbnail")

	if price, ok := asFloat(payload["price"]); ok {
		item.Price = &price
	}
	if status, ok := asFloat(payload["status"]); ok {
		item.Status = int(status)
	} else {
		item.Status = domain.ItemStatusActive
	}
	// Older index builds used snake_case here.
	if raw := firstString(payload, "createdAt", "created_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			item.CreatedAt = t
		}
	}

	return item
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	case string:
		var parsed uint64
		if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(payload[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}
