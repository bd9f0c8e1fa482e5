package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Run("structured codes take precedence over message text", func(t *testing.T) {
		// The message mentions a timeout but the code says CORS; the
		// code wins.
		err := New(CodeCORSRejected, "handshake timed out behind proxy", nil)
		assert.Equal(t, CategoryCORS, Classify(err, "websocket"))
	})

	t.Run("structured codes map to their categories", func(t *testing.T) {
		tests := []struct {
			code string
			want Category
		}{
			{CodeUnauthorized, CategoryAuth},
			{CodeForbidden, CategoryAuth},
			{CodeCORSRejected, CategoryCORS},
			{CodeTimeout, CategoryTimeout},
			{CodeTransport, CategoryTransport},
			{CodeNetwork, CategoryNetwork},
			{CodeServerError, CategoryServer},
			{CodeServiceUnavail, CategoryServer},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				assert.Equal(t, tt.want, Classify(New(tt.code, "boom", nil), ""))
			})
		}
	})

	t.Run("wrapped structured codes are found", func(t *testing.T) {
		err := fmt.Errorf("connect: %w", New(CodeCORSRejected, "rejected", nil))
		assert.Equal(t, CategoryCORS, Classify(err, ""))
	})

	t.Run("deadline exceeded is a timeout", func(t *testing.T) {
		assert.Equal(t, CategoryTimeout, Classify(context.DeadlineExceeded, ""))
		assert.Equal(t, CategoryTimeout, Classify(fmt.Errorf("poll: %w", context.DeadlineExceeded), "polling"))
	})

	t.Run("text heuristics for shapeless errors", func(t *testing.T) {
		tests := []struct {
			msg  string
			want Category
		}{
			{"blocked by CORS policy", CategoryCORS},
			{"Access-Control-Allow-Origin header missing", CategoryCORS},
			{"session expired, login required", CategoryAuth},
			{"request timed out", CategoryTimeout},
			{"websocket: bad close frame", CategoryTransport},
			{"dial tcp: connection refused", CategoryNetwork},
			{"502 bad gateway", CategoryServer},
		}
		for _, tt := range tests {
			t.Run(tt.msg, func(t *testing.T) {
				assert.Equal(t, tt.want, Classify(errors.New(tt.msg), ""))
			})
		}
	})

	t.Run("context tag breaks ties for opaque errors", func(t *testing.T) {
		opaque := errors.New("something odd happened")
		assert.Equal(t, CategoryTransport, Classify(opaque, "websocket"))
		assert.Equal(t, CategoryTransport, Classify(opaque, "polling"))
		assert.Equal(t, CategoryNetwork, Classify(opaque, "http"))
		assert.Equal(t, CategoryUnknown, Classify(opaque, ""))
	})

	t.Run("same inputs always give the same category", func(t *testing.T) {
		err := errors.New("blocked by CORS policy")
		first := Classify(err, "websocket")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Classify(err, "websocket"))
		}
	})
}

func TestProfiles(t *testing.T) {
	t.Run("cors profile tries transport fallback before waiting", func(t *testing.T) {
		p := ProfileFor(CategoryCORS)
		assert.Equal(t, SeverityWarning, p.Severity)
		assert.Equal(t, StrategyTransportFallback, p.Strategies[0],
			"fallback transport comes before any retry delay")
	})

	t.Run("auth profile has no automatic reconnect", func(t *testing.T) {
		p := ProfileFor(CategoryAuth)
		assert.NotContains(t, p.Strategies, StrategyReconnect)
		assert.Equal(t, SeverityError, p.Severity)
	})

	t.Run("every category has a profile with at least one strategy", func(t *testing.T) {
		cats := []Category{
			CategoryNetwork, CategoryAuth, CategoryCORS, CategoryTimeout,
			CategoryTransport, CategoryServer, CategoryUnknown,
		}
		for _, cat := range cats {
			p := ProfileFor(cat)
			assert.NotEmpty(t, p.Title, cat)
			assert.NotEmpty(t, p.Strategies, cat)
		}
	})

	t.Run("unrecognized category falls back to the generic profile", func(t *testing.T) {
		assert.Equal(t, ProfileFor(CategoryUnknown), ProfileFor(Category("martian")))
	})
}
