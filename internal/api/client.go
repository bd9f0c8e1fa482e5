package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/logger"

	"github.com/patrickmn/go-cache"
)

// Client is the typed HTTP client for the Vedfolnir server.
type Client struct {
	endpoint   string
	httpClient *http.Client
	csrf       *CSRFProvider
	// redirects caches redirect-info per task; the review destination of
	// a completed task never changes.
	redirects *cache.Cache
	logger    *slog.Logger
}

// Options configures the client.
type Options struct {
	// CSRFTokenSeed pre-populates the token cache.
	CSRFTokenSeed string
	// CSRFTokenTTL overrides the default cached token lifetime.
	CSRFTokenTTL time.Duration
	// HTTPClient overrides the default HTTP client (used by tests).
	HTTPClient *http.Client
}

// NewClient creates a client for the given API endpoint.
func NewClient(endpoint string, opts Options, log *slog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		redirects:  cache.New(constants.RedirectInfoTTL, constants.RedirectInfoTTL),
		logger:     log,
	}
	c.csrf = NewCSRFProvider(opts.CSRFTokenSeed, opts.CSRFTokenTTL, c.fetchCSRFToken, log)
	return c
}

// CSRF exposes the token provider for components that build their own
// requests (e.g. the realtime polling transport).
func (c *Client) CSRF() *CSRFProvider {
	return c.csrf
}

// Request represents an API request.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
}

// buildURL constructs the full API URL from a path with optional query.
func (c *Client) buildURL(path string) (string, error) {
	var pathPart, queryString string
	if idx := strings.Index(path, "?"); idx != -1 {
		pathPart = path[:idx]
		queryString = path[idx+1:]
	} else {
		pathPart = path
	}

	apiURL, err := url.JoinPath(c.endpoint, pathPart)
	if err != nil {
		return "", err
	}

	if queryString != "" {
		apiURL = apiURL + "?" + queryString
	}

	return apiURL, nil
}

// Do makes a single HTTP request, injecting the CSRF token on mutating
// verbs.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	apiURL, err := c.buildURL(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	var bodyReader io.Reader
	if bodyBytes != nil {
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(constants.ContentTypeHeader, "application/json")
	if err = c.csrf.Inject(httpReq); err != nil {
		return nil, fmt.Errorf("failed to inject CSRF token: %w", err)
	}

	logArgs := []any{
		"operation", "HTTP.Request",
		"method", req.Method,
		"url", apiURL,
		"hasBody", bodyBytes != nil,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	c.logger.Debug("calling server", logArgs...)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("received HTTP response",
		"status", resp.StatusCode,
		"bodySize", len(body),
		"method", req.Method,
		"url", apiURL)

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// DoJSON makes a request and unmarshals the response. A 403 caused by
// CSRF token validation triggers one transparent refresh, after which
// the original request is retried with linear backoff up to the retry
// budget. Exhausting the budget surfaces the error to the caller.
func (c *Client) DoJSON(ctx context.Context, req Request, result any) error {
	var lastErr error

	for attempt := 1; attempt <= constants.CSRFRetryBudget; attempt++ {
		resp, err := c.Do(ctx, req)
		if err != nil {
			return err
		}

		if isCSRFFailure(resp.StatusCode, resp.Body) {
			c.logger.Warn("CSRF token rejected, refreshing",
				"attempt", attempt, "path", req.Path)
			c.csrf.Invalidate()
			lastErr = decodeErrorResponse(resp)

			delay := time.Duration(attempt) * constants.CSRFRetryBackoff
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode >= constants.HTTPStatusBadRequest {
			return decodeErrorResponse(resp)
		}

		if resp.StatusCode == http.StatusNoContent || result == nil {
			return nil
		}

		if err = json.Unmarshal(resp.Body, result); err != nil {
			c.logger.Debug("response body", "body", string(resp.Body))
			return fmt.Errorf("failed to parse response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("CSRF retry budget exhausted: %w", lastErr)
}

// fetchCSRFToken retrieves a fresh token from the server. It bypasses
// DoJSON so a token refresh can never recurse into another refresh.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: constants.CSRFTokenPath})
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= constants.HTTPStatusBadRequest {
		return "", decodeErrorResponse(resp)
	}

	var tokenResp CSRFTokenResponse
	if err = json.Unmarshal(resp.Body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse CSRF token response: %w", err)
	}
	if !tokenResp.Success || tokenResp.CSRFToken == "" {
		return "", fmt.Errorf("server did not return a CSRF token")
	}

	return tokenResp.CSRFToken, nil
}

// isCSRFFailure reports whether a 403 response body indicates a CSRF
// token validation failure. The structured code is checked first; the
// message-text match only covers servers that omit codes.
func isCSRFFailure(statusCode int, body []byte) bool {
	if statusCode != http.StatusForbidden {
		return false
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch errResp.Code {
		case "CSRF_INVALID", "CSRF_EXPIRED", "CSRF_MISSING":
			return true
		}
		if errResp.Code != "" {
			return false
		}
		return strings.Contains(strings.ToLower(errResp.Error), "csrf")
	}

	return strings.Contains(strings.ToLower(string(body)), "csrf")
}

// decodeErrorResponse converts an error response body into an error.
func decodeErrorResponse(resp *Response) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(resp.Body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}
	if errResp.Details != "" {
		return fmt.Errorf("[%d] %s: %s", resp.StatusCode, errResp.Error, errResp.Details)
	}
	return fmt.Errorf("[%d] %s", resp.StatusCode, errResp.Error)
}
