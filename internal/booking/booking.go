// Package booking integrates the external appointment service. Lifecycle
// evaluation asks it whether a user has confirmed or upcoming sessions.
package booking

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/emberwell/wellness-backend/internal/model"
)

// Signal answers lifecycle questions about a user's therapy bookings.
type Signal interface {
	// Confirmed reports whether the user has at least one confirmed session.
	Confirmed(ctx context.Context, userID string) (bool, error)
	// HasUpcoming reports whether the user has a session scheduled ahead.
	HasUpcoming(ctx context.Context, userID string) (bool, error)
}

// None is the signal used when no booking service is configured. It never
// confirms anything, so phase transitions rely on check-in thresholds alone.
type None struct{}

func (None) Confirmed(ctx context.Context, userID string) (bool, error)   { return false, nil }
func (None) HasUpcoming(ctx context.Context, userID string) (bool, error) { return false, nil }

// Client talks to the booking collaborator over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient builds a booking client for the given base URL.
func NewClient(baseURL string) *Client {
	c := resty.New().SetBaseURL(baseURL)
	return &Client{http: c}
}

type status struct {
	Confirmed bool `json:"confirmed"`
	Upcoming  bool `json:"upcoming"`
}

func (c *Client) fetch(ctx context.Context, userID string) (*status, error) {
	var out status
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v0/bookings/" + userID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking service: %v", model.ErrUnavailable, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		// No booking record yet for this user.
		return &status{}, nil
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: booking service status %d", model.ErrUnavailable, resp.StatusCode())
	}
	return &out, nil
}

func (c *Client) Confirmed(ctx context.Context, userID string) (bool, error) {
	st, err := c.fetch(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.Confirmed, nil
}

func (c *Client) HasUpcoming(ctx context.Context, userID string) (bool, error) {
	st, err := c.fetch(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.Upcoming, nil
}
