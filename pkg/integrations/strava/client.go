// Package strava is a read-only client for the Strava v3 API, used to
// backfill activities intervals.icu has not ingested.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/normalize"
)

const (
	baseURL = "https://www.strava.com/api/v3"
	// Strava caps per_page at 200.
	pageSize = 200
)

var endpoint = oauth2.Endpoint{
	TokenURL: "https://www.strava.com/oauth/token",
}

// Client is a Strava API client authenticated with a long-lived refresh
// token. Access tokens are refreshed transparently by the oauth2
// transport.
type Client struct {
	client *http.Client
}

// NewClient builds a client from app credentials and the athlete's
// refresh token.
func NewClient(ctx context.Context, clientID, clientSecret, refreshToken string) *Client {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		// Force an immediate refresh on first use.
		Expiry: time.Now().Add(-time.Hour),
	}
	httpClient := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	httpClient.Timeout = 30 * time.Second
	return &Client{client: httpClient}
}

// ListActivities retrieves all summary activities after the given time,
// following pagination until a short page.
func (c *Client) ListActivities(ctx context.Context, after time.Time) ([]normalize.StravaActivity, error) {
	var all []normalize.StravaActivity

	for page := 1; ; page++ {
		query := url.Values{
			"after":    {strconv.FormatInt(after.Unix(), 10)},
			"per_page": {strconv.Itoa(pageSize)},
			"page":     {strconv.Itoa(page)},
		}

		batch, err := c.getActivities(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) getActivities(ctx context.Context, query url.Values) ([]normalize.StravaActivity, error) {
	u := fmt.Sprintf("%s/athlete/activities?%s", baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &integrations.APIError{Endpoint: "/athlete/activities", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var activities []normalize.StravaActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return activities, nil
}
