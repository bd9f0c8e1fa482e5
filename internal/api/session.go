package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vedfolnir/console/internal/constants"
)

// GetSessionState fetches the server-authoritative session snapshot.
func (c *Client) GetSessionState(ctx context.Context) (*SessionState, error) {
	var resp SessionStateResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   constants.SessionStatePath,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("server reported failure fetching session state")
	}
	return &resp.State, nil
}

// Heartbeat is the session keep-alive. It is intentionally a no-op:
// the server-side endpoint is disabled pending a CSRF fix, and the
// liveness contract must be confirmed with the server component before
// this is wired up. Do not re-enable without that confirmation.
func (c *Client) Heartbeat(_ context.Context) error {
	c.logger.Debug("session heartbeat skipped (endpoint disabled server-side)")
	return nil
}

// GetClientConfig fetches realtime tuning parameters from the server.
// Callers treat the result as defaults, overridable by local options.
func (c *Client) GetClientConfig(ctx context.Context) (*ClientConfig, error) {
	var resp ClientConfigResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   constants.ClientConfigPath,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("server reported failure fetching client config")
	}
	return &resp.Config, nil
}
