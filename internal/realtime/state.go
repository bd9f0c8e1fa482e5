package realtime

// State is the connection state, owned exclusively by the Client.
type State string

const (
	StateInitializing   State = "initializing"
	StateConnected      State = "connected"
	StateDisconnected   State = "disconnected"
	StateReconnecting   State = "reconnecting"
	StateRecovering     State = "recovering"
	StateCORSError      State = "cors_error"
	StateAuthError      State = "auth_error"
	StateTransportError State = "transport_error"
	// StateFailed is reached only after exceeding the maximum
	// reconnection attempts. It is user-recoverable via ForceReconnect,
	// which resets the attempt counter.
	StateFailed State = "failed"
)

// Stats are cumulative connection counters for the status surface.
type Stats struct {
	State           State  `json:"state"`
	Transport       string `json:"transport"`
	Reconnects      int    `json:"reconnects"`
	CurrentAttempt  int    `json:"current_attempt"`
	LastError       string `json:"last_error,omitempty"`
	ConnectedSinceS int64  `json:"connected_since_unix,omitempty"`
}
