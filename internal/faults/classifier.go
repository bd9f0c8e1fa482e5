package faults

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// Category groups raw errors by their recovery semantics.
type Category string

const (
	CategoryNetwork   Category = "network"
	CategoryAuth      Category = "auth"
	CategoryCORS      Category = "cors"
	CategoryTimeout   Category = "timeout"
	CategoryTransport Category = "transport"
	CategoryServer    Category = "server"
	CategoryUnknown   Category = "unknown"
)

// Severity is the user-facing weight of an error category.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// coder is implemented by errors that carry a structured code. Structured
// codes are preferred; message-text matching is the fallback for
// third-party errors whose shape cannot be controlled.
type coder interface {
	ErrorCode() string
}

// Classify maps a raw error and its originating context tag to a
// category. It is a pure function: same inputs, same category.
func Classify(err error, contextTag string) Category {
	if err == nil {
		return CategoryUnknown
	}

	var c coder
	if errors.As(err, &c) {
		if cat, ok := classifyCode(c.ErrorCode()); ok {
			return cat
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	return classifyText(err.Error(), contextTag)
}

func classifyCode(code string) (Category, bool) {
	switch code {
	case CodeUnauthorized, CodeForbidden:
		return CategoryAuth, true
	case CodeCORSRejected:
		return CategoryCORS, true
	case CodeTimeout:
		return CategoryTimeout, true
	case CodeTransport:
		return CategoryTransport, true
	case CodeNetwork:
		return CategoryNetwork, true
	case CodeServerError, CodeServiceUnavail:
		return CategoryServer, true
	default:
		return CategoryUnknown, false
	}
}

// classifyText is the keyword heuristic over the error message. It is a
// known source of misclassification; servers that emit structured codes
// never reach it.
func classifyText(msg, contextTag string) Category {
	lower := strings.ToLower(msg)

	switch {
	case containsAny(lower, "cors", "cross-origin", "access-control-allow"):
		return CategoryCORS
	case containsAny(lower, "unauthorized", "authentication", "forbidden", "session expired", "login required"):
		return CategoryAuth
	case containsAny(lower, "timeout", "timed out", "deadline exceeded"):
		return CategoryTimeout
	case containsAny(lower, "websocket", "transport", "upgrade", "handshake", "bad close"):
		return CategoryTransport
	case containsAny(lower, "connection refused", "connection reset", "no such host", "network", "broken pipe", "eof"):
		return CategoryNetwork
	case containsAny(lower, "internal server error", "bad gateway", "service unavailable", "500", "502", "503"):
		return CategoryServer
	}

	// The originating context breaks ties for shapeless errors.
	switch contextTag {
	case "websocket", "polling":
		return CategoryTransport
	case "http":
		return CategoryNetwork
	}

	return CategoryUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Profile is the user-facing description and recovery plan for a
// category.
type Profile struct {
	Title       string
	Description string
	Icon        string
	Severity    Severity
	// Strategies are recovery strategy names, attempted in order.
	Strategies []string
	// UserActions are suggested manual next steps when automatic
	// recovery is exhausted.
	UserActions []string
}

// Strategy names shared between the profile table and the Recoverer.
const (
	StrategyTransportFallback = "transport_fallback"
	StrategyReconnect         = "reconnect"
	StrategyWaitAndRetry      = "wait_and_retry"
	StrategyRefreshSession    = "refresh_session"
)

var profiles = map[Category]Profile{
	CategoryNetwork: {
		Title:       "Connection Problem",
		Description: "The server could not be reached. Retrying automatically.",
		Icon:        "📡",
		Severity:    SeverityWarning,
		Strategies:  []string{StrategyWaitAndRetry, StrategyReconnect},
		UserActions: []string{"Check your network connection", "Retry manually"},
	},
	CategoryAuth: {
		Title:       "Session Expired",
		Description: "Your session is no longer valid. Please log in again.",
		Icon:        "🔒",
		Severity:    SeverityError,
		Strategies:  []string{StrategyRefreshSession},
		UserActions: []string{"Log in again"},
	},
	CategoryCORS: {
		Title:       "Connection Blocked",
		Description: "The realtime connection was blocked by a cross-origin policy. Falling back to a compatible transport.",
		Icon:        "🚧",
		Severity:    SeverityWarning,
		Strategies:  []string{StrategyTransportFallback, StrategyReconnect},
		UserActions: []string{"Reload and retry", "Contact the administrator if this persists"},
	},
	CategoryTimeout: {
		Title:       "Server Slow to Respond",
		Description: "The server took too long to respond. Retrying with a longer delay.",
		Icon:        "⏱",
		Severity:    SeverityWarning,
		Strategies:  []string{StrategyWaitAndRetry, StrategyReconnect},
		UserActions: []string{"Wait and retry", "Check server status"},
	},
	CategoryTransport: {
		Title:       "Realtime Transport Error",
		Description: "The realtime transport failed. Switching to the fallback transport.",
		Icon:        "🔌",
		Severity:    SeverityWarning,
		Strategies:  []string{StrategyTransportFallback, StrategyReconnect},
		UserActions: []string{"Retry manually"},
	},
	CategoryServer: {
		Title:       "Server Error",
		Description: "The server reported an internal error. Backing off before retrying.",
		Icon:        "💥",
		Severity:    SeverityError,
		Strategies:  []string{StrategyWaitAndRetry},
		UserActions: []string{"Retry later", "Export debug info for support"},
	},
	CategoryUnknown: {
		Title:       "Unexpected Error",
		Description: "Something went wrong. Retrying automatically.",
		Icon:        "❓",
		Severity:    SeverityWarning,
		Strategies:  []string{StrategyWaitAndRetry},
		UserActions: []string{"Retry manually", "Export debug info for support"},
	},
}

// ProfileFor returns the profile for a category; unknown categories get
// the generic profile.
func ProfileFor(cat Category) Profile {
	if p, ok := profiles[cat]; ok {
		return p
	}
	return profiles[CategoryUnknown]
}
