// Package api provides the typed HTTP client for the Vedfolnir server.
// It handles CSRF token management, request/response serialization, and
// error handling. The server owns the exact payload shapes; these types
// mirror its documented contracts.
package api

// CSRFTokenResponse is returned by GET /api/csrf-token.
type CSRFTokenResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrf_token"`
}

// TaskState is the lifecycle state of a caption generation task.
type TaskState string

const (
	TaskStateQueued    TaskState = "queued"
	TaskStateRunning   TaskState = "running"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCancelled TaskState = "cancelled"
)

// IsTerminal reports whether no further automatic transition occurs
// without explicit user action.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// TaskResults summarizes a completed caption generation run.
type TaskResults struct {
	CaptionsGenerated int `json:"captions_generated"`
	ImagesProcessed   int `json:"images_processed"`
}

// TaskStatus is the server's view of a task.
type TaskStatus struct {
	TaskID          string            `json:"task_id"`
	Status          TaskState         `json:"status"`
	ProgressPercent float64           `json:"progress_percent"`
	CurrentStep     string            `json:"current_step,omitempty"`
	ProgressDetails map[string]string `json:"progress_details,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	// RecoverySuggestions carries server-categorized next steps shown
	// when a task fails.
	RecoverySuggestions []string     `json:"recovery_suggestions,omitempty"`
	Results             *TaskResults `json:"results,omitempty"`
}

// TaskStatusResponse is returned by the task status endpoint.
type TaskStatusResponse struct {
	Success bool       `json:"success"`
	Status  TaskStatus `json:"status"`
}

// ActionResponse is returned by the task cancel and retry endpoints.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// NewTaskID is set by retry when the server re-created the task.
	NewTaskID string `json:"new_task_id,omitempty"`
}

// RedirectInfo describes where a completed task's results are reviewed.
type RedirectInfo struct {
	RedirectURL string `json:"redirect_url"`
	TotalImages int    `json:"total_images"`
}

// RedirectInfoResponse is returned by the redirect-info endpoint.
type RedirectInfoResponse struct {
	Success      bool         `json:"success"`
	RedirectInfo RedirectInfo `json:"redirect_info"`
}

// User identifies the authenticated user within a session snapshot.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Platform identifies the active platform connection.
type Platform struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PlatformType string `json:"platform_type"`
}

// SessionState is the server-authoritative session snapshot.
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	User          *User     `json:"user,omitempty"`
	Platform      *Platform `json:"platform,omitempty"`
}

// SessionStateResponse is returned by GET /api/session/state.
type SessionStateResponse struct {
	Success bool         `json:"success"`
	State   SessionState `json:"state"`
}

// HeartbeatResponse acknowledges POST /api/session/heartbeat.
type HeartbeatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ClientConfig carries server-supplied realtime tuning parameters,
// consumed as defaults and overridable by local configuration.
type ClientConfig struct {
	ReconnectBaseDelayMS int    `json:"reconnect_base_delay_ms"`
	ReconnectMaxDelayMS  int    `json:"reconnect_max_delay_ms"`
	MaxReconnectAttempts int    `json:"max_reconnect_attempts"`
	PingIntervalMS       int    `json:"ping_interval_ms"`
	PreferredTransport   string `json:"preferred_transport,omitempty"`
}

// ClientConfigResponse is returned by GET /api/websocket/client-config.
type ClientConfigResponse struct {
	Success bool         `json:"success"`
	Config  ClientConfig `json:"config"`
}

// ErrorResponse is the server's generic error payload. Code is the
// structured error category preferred over message-text heuristics.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
