package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/faults"

	"github.com/gorilla/websocket"
)

// Transport names.
const (
	TransportWebSocket = "websocket"
	TransportPolling   = "polling"
)

// Transport is one bidirectional communication mechanism. The Client
// selects between the low-latency websocket transport and the more
// compatible polling transport.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	// Read blocks until the next inbound frame or a connection error.
	Read() (Envelope, error)
	Send(ctx context.Context, env Envelope) error
	Close() error
}

// websocketTransport speaks the primary websocket protocol.
type websocketTransport struct {
	url  string
	csrf *api.CSRFProvider

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketTransport creates the primary transport. The CSRF token is
// presented on the handshake so the server can associate the session.
func NewWebSocketTransport(url string, csrf *api.CSRFProvider) Transport {
	return &websocketTransport{url: url, csrf: csrf}
}

func (t *websocketTransport) Name() string { return TransportWebSocket }

func (t *websocketTransport) Connect(ctx context.Context) error {
	header := http.Header{}
	if t.csrf != nil {
		if token, err := t.csrf.Token(ctx); err == nil {
			header.Set(constants.CSRFTokenHeader, token)
		}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusForbidden:
				return faults.WithContext(faults.CodeCORSRejected,
					"websocket handshake rejected", "websocket", err)
			case http.StatusUnauthorized:
				return faults.WithContext(faults.CodeUnauthorized,
					"websocket handshake unauthorized", "websocket", err)
			}
		}
		return faults.WithContext(faults.CodeTransport,
			"websocket connect failed", "websocket", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *websocketTransport) Read() (Envelope, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return Envelope{}, fmt.Errorf("websocket not connected")
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			return Envelope{}, faults.WithContext(faults.CodeTransport,
				"websocket closed unexpectedly", "websocket", err)
		}
		return Envelope{}, err
	}

	var env Envelope
	if err = json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed realtime frame: %w", err)
	}
	return env, nil
}

func (t *websocketTransport) Send(_ context.Context, env Envelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	return conn.WriteJSON(env)
}

func (t *websocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}

	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
	)
	return conn.Close()
}

// pollEventsResponse is the long-poll endpoint's payload.
type pollEventsResponse struct {
	Success bool       `json:"success"`
	Cursor  string     `json:"cursor"`
	Events  []Envelope `json:"events"`
}

// pollingTransport is the compatibility fallback: long-polling over the
// HTTP API. CSRF injection rides on the shared API client.
type pollingTransport struct {
	client *api.Client

	mu      sync.Mutex
	cursor  string
	pending []Envelope
	cancel  context.CancelFunc
	ctx     context.Context
}

// NewPollingTransport creates the fallback transport over the API client.
func NewPollingTransport(client *api.Client) Transport {
	return &pollingTransport{client: client}
}

func (t *pollingTransport) Name() string { return TransportPolling }

func (t *pollingTransport) Connect(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.ctx = pollCtx
	t.cancel = cancel
	t.cursor = ""
	t.pending = nil
	t.mu.Unlock()

	// One immediate poll validates that the endpoint is reachable.
	var resp pollEventsResponse
	err := t.client.DoJSON(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/events/poll?wait=0",
	}, &resp)
	if err != nil {
		cancel()
		return faults.WithContext(faults.CodeNetwork,
			"polling transport connect failed", "polling", err)
	}

	t.mu.Lock()
	t.cursor = resp.Cursor
	t.pending = append(t.pending, resp.Events...)
	t.mu.Unlock()
	return nil
}

func (t *pollingTransport) Read() (Envelope, error) {
	for {
		t.mu.Lock()
		if len(t.pending) > 0 {
			env := t.pending[0]
			t.pending = t.pending[1:]
			t.mu.Unlock()
			return env, nil
		}
		ctx := t.ctx
		cursor := t.cursor
		t.mu.Unlock()

		if ctx == nil {
			return Envelope{}, fmt.Errorf("polling transport not connected")
		}
		if err := ctx.Err(); err != nil {
			return Envelope{}, err
		}

		var resp pollEventsResponse
		err := t.client.DoJSON(ctx, api.Request{
			Method: http.MethodGet,
			Path:   fmt.Sprintf("/api/events/poll?cursor=%s&wait=25", cursor),
		}, &resp)
		if err != nil {
			return Envelope{}, faults.WithContext(faults.CodeNetwork,
				"event poll failed", "polling", err)
		}

		t.mu.Lock()
		t.cursor = resp.Cursor
		t.pending = append(t.pending, resp.Events...)
		t.mu.Unlock()
	}
}

func (t *pollingTransport) Send(ctx context.Context, env Envelope) error {
	return t.client.DoJSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/api/events/emit",
		Body:   env,
	}, nil)
}

func (t *pollingTransport) Close() error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.ctx = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
