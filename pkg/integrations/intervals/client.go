// Package intervals is an API client for Intervals.icu, the primary
// activity and wellness source.
package intervals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/normalize"
)

const baseURL = "https://intervals.icu/api/v1"

// Client is an API client for Intervals.icu.
type Client struct {
	apiKey    string
	athleteID string
	client    *http.Client
}

// NewClient creates a new Intervals.icu API client.
func NewClient(apiKey, athleteID string) *Client {
	return &Client{
		apiKey:    apiKey,
		athleteID: athleteID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListParams bound a listing request. Dates are YYYY-MM-DD; an empty
// Oldest requests full history.
type ListParams struct {
	Oldest string
	Newest string
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := fmt.Sprintf("%s/athlete/%s%s", baseURL, c.athleteID, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	// Basic Auth with the literal username API_KEY.
	req.SetBasicAuth("API_KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &integrations.APIError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListActivities retrieves activity payloads for the athlete.
func (c *Client) ListActivities(ctx context.Context, params ListParams) ([]normalize.IntervalsActivity, error) {
	query := url.Values{}
	if params.Oldest != "" {
		query.Set("oldest", params.Oldest)
	}
	if params.Newest != "" {
		query.Set("newest", params.Newest)
	}

	var activities []normalize.IntervalsActivity
	if err := c.get(ctx, "/activities", query, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListWellness retrieves wellness payloads for the athlete.
func (c *Client) ListWellness(ctx context.Context, params ListParams) ([]normalize.IntervalsWellness, error) {
	query := url.Values{}
	if params.Oldest != "" {
		query.Set("oldest", params.Oldest)
	}
	if params.Newest != "" {
		query.Set("newest", params.Newest)
	}

	var wellness []normalize.IntervalsWellness
	if err := c.get(ctx, "/wellness", query, &wellness); err != nil {
		return nil, err
	}
	return wellness, nil
}

// Athlete is the subset of the athlete document the dashboard uses.
type Athlete struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// GetAthlete retrieves the athlete profile, mostly as a credentials
// check at startup.
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, "", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}
