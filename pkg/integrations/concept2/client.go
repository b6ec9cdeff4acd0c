// Package concept2 is a client for the Concept2 logbook API, the source
// of RowErg workouts.
package concept2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/normalize"
)

const baseURL = "https://log.concept2.com"

// Client is a Concept2 logbook client using resource-owner password
// credentials. The token is obtained lazily on first request.
type Client struct {
	username string
	password string
	client   *http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a logbook client for the given account.
func NewClient(username, password string) *Client {
	return &Client{
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.password},
		"scope":      {"results:read"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/oauth/access_token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &integrations.APIError{Endpoint: "/oauth/access_token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("auth response carried no access token")
	}
	c.token = tok.AccessToken
	return c.token, nil
}

// ListResults retrieves logbook results from the given date onward,
// following the API's paginated envelope.
func (c *Client) ListResults(ctx context.Context, from string) ([]normalize.Concept2Workout, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var all []normalize.Concept2Workout
	next := fmt.Sprintf("%s/api/users/me/results?from=%s", baseURL, url.QueryEscape(from))

	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &integrations.APIError{Endpoint: "/api/users/me/results", StatusCode: resp.StatusCode, Body: string(body)}
		}

		var envelope struct {
			Data []normalize.Concept2Workout `json:"data"`
			Meta struct {
				Pagination struct {
					Links struct {
						Next string `json:"next"`
					} `json:"links"`
				} `json:"pagination"`
			} `json:"meta"`
		}
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}

		all = append(all, envelope.Data...)
		next = envelope.Meta.Pagination.Links.Next
	}

	return all, nil
}
