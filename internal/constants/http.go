package constants

// ContentTypeHeader is the standard Content-Type header name.
const ContentTypeHeader = "Content-Type"

// CSRFTokenHeader carries the CSRF token on mutating requests.
const CSRFTokenHeader = "X-CSRFToken"

// HTTPStatusBadRequest is the lowest status code treated as an error response.
const HTTPStatusBadRequest = 400

// CSRF token endpoint and session endpoints, relative to the API base URL.
const (
	CSRFTokenPath        = "/api/csrf-token"
	SessionStatePath     = "/api/session/state"
	SessionHeartbeatPath = "/api/session/heartbeat"
	ClientConfigPath     = "/api/websocket/client-config"
)

// CSRFRetryBudget is the maximum number of transparent refresh-and-retry
// attempts after a CSRF validation failure before the error surfaces.
const CSRFRetryBudget = 3
