// Package maps wraps the Google Places API for address autocomplete. The
// storefront uses it to suggest addresses while the shopper types; the final
// address text is whatever the shopper submits.
package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aryankapoor/zapkart-backend/pkg/config"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"
	defaultTimeout = 5 * time.Second

	// Autocomplete responses only need the prediction text.
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
)

// Client calls the Places autocomplete endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	regionCode string
	httpClient *http.Client
}

// Option customizes the Places client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a Places client from config. Returns nil when no API key
// is configured so callers can feature-gate suggestions.
func NewClient(cfg config.GoogleMapsConfig, opts ...Option) *Client {
	if cfg.APIKey == "" {
		return nil
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		regionCode: cfg.RegionCode,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggestion is a single autocomplete prediction.
type Suggestion struct {
	PlaceID string `json:"place_id"`
	Text    string `json:"text"`
}

type autocompleteRequest struct {
	Input              string   `json:"input"`
	IncludedRegionCodes []string `json:"includedRegionCodes,omitempty"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

// Autocomplete returns address predictions for the partial input.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	if c == nil {
		return nil, fmt.Errorf("maps client is not configured")
	}

	payload := autocompleteRequest{Input: input}
	if c.regionCode != "" {
		payload.IncludedRegionCodes = []string{c.regionCode}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling autocomplete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building autocomplete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", autocompleteFieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling places autocomplete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("places autocomplete returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding autocomplete response: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		suggestions = append(suggestions, Suggestion{
			PlaceID: s.PlacePrediction.PlaceID,
			Text:    s.PlacePrediction.Text.Text,
		})
	}
	return suggestions, nil
}
