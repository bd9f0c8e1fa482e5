package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vedfolnir/console/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFProviderToken(t *testing.T) {
	t.Run("seed is served without fetching", func(t *testing.T) {
		var fetches atomic.Int32
		p := NewCSRFProvider("seed-token", time.Minute, func(context.Context) (string, error) {
			fetches.Add(1)
			return "fetched", nil
		}, slog.Default())

		token, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "seed-token", token)
		assert.Equal(t, int32(0), fetches.Load())
	})

	t.Run("concurrent refreshes coalesce into one fetch", func(t *testing.T) {
		var fetches atomic.Int32
		p := NewCSRFProvider("", time.Minute, func(context.Context) (string, error) {
			fetches.Add(1)
			time.Sleep(20 * time.Millisecond)
			return "shared-token", nil
		}, slog.Default())

		const callers = 16
		tokens := make([]string, callers)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				token, err := p.Token(context.Background())
				assert.NoError(t, err)
				tokens[i] = token
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), fetches.Load(), "all callers share one in-flight request")
		for _, token := range tokens {
			assert.Equal(t, "shared-token", token)
		}
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		var fetches atomic.Int32
		p := NewCSRFProvider("", time.Minute, func(context.Context) (string, error) {
			return fmt.Sprintf("token-%d", fetches.Add(1)), nil
		}, slog.Default())

		first, err := p.Token(context.Background())
		require.NoError(t, err)
		second, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, second, "cached token is reused")

		p.Invalidate()
		third, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, first, third)
		assert.Equal(t, int32(2), fetches.Load())
	})

	t.Run("empty token from server is an error", func(t *testing.T) {
		p := NewCSRFProvider("", time.Minute, func(context.Context) (string, error) {
			return "", nil
		}, slog.Default())

		_, err := p.Token(context.Background())
		assert.Error(t, err)
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		p := NewCSRFProvider("", time.Minute, func(context.Context) (string, error) {
			return "", fmt.Errorf("server unreachable")
		}, slog.Default())

		_, err := p.Token(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server unreachable")
	})
}

func TestCSRFProviderInject(t *testing.T) {
	newProvider := func() *CSRFProvider {
		return NewCSRFProvider("tok", time.Minute, nil, slog.Default())
	}

	t.Run("sets header on mutating verbs", func(t *testing.T) {
		p := newProvider()
		req, _ := http.NewRequest(http.MethodPost, "http://example.test/api/tasks/t/cancel", nil)
		require.NoError(t, p.Inject(req))
		assert.Equal(t, "tok", req.Header.Get(constants.CSRFTokenHeader))
	})

	t.Run("leaves safe verbs untouched", func(t *testing.T) {
		p := newProvider()
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			req, _ := http.NewRequest(method, "http://example.test/api/tasks/t/status", nil)
			require.NoError(t, p.Inject(req))
			assert.Empty(t, req.Header.Get(constants.CSRFTokenHeader), method)
		}
	})
}
