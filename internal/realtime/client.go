package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/faults"
)

// Options tunes the connection wrapper. Zero fields are filled from the
// server's client-config response and finally from built-in defaults, so
// local settings take precedence over server-supplied ones.
type Options struct {
	Backoff           Backoff
	MaxAttempts       int
	CORSFallbackDelay time.Duration
	PingInterval      time.Duration
}

// ApplyServerDefaults fills unset fields from the server's tuning.
func (o *Options) ApplyServerDefaults(cc *api.ClientConfig) {
	if cc == nil {
		return
	}
	if o.Backoff.Base == 0 && cc.ReconnectBaseDelayMS > 0 {
		o.Backoff.Base = time.Duration(cc.ReconnectBaseDelayMS) * time.Millisecond
	}
	if o.Backoff.Max == 0 && cc.ReconnectMaxDelayMS > 0 {
		o.Backoff.Max = time.Duration(cc.ReconnectMaxDelayMS) * time.Millisecond
	}
	if o.MaxAttempts == 0 && cc.MaxReconnectAttempts > 0 {
		o.MaxAttempts = cc.MaxReconnectAttempts
	}
	if o.PingInterval == 0 && cc.PingIntervalMS > 0 {
		o.PingInterval = time.Duration(cc.PingIntervalMS) * time.Millisecond
	}
}

// normalize fills any remaining zero fields with built-in defaults.
func (o *Options) normalize() {
	def := DefaultBackoff()
	if o.Backoff.Base == 0 {
		o.Backoff.Base = def.Base
	}
	if o.Backoff.Factor == 0 {
		o.Backoff.Factor = def.Factor
	}
	if o.Backoff.Max == 0 {
		o.Backoff.Max = def.Max
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = constants.ReconnectMaxAttempts
	}
	if o.CORSFallbackDelay == 0 {
		o.CORSFallbackDelay = constants.CORSFallbackDelay
	}
}

// Client wraps the realtime connection: state machine, reconnection with
// capped exponential backoff, and transport fallback. All state
// transitions are emitted as StateChange events on the event channel.
type Client struct {
	opts     Options
	primary  Transport
	fallback Transport
	logger   *slog.Logger
	history  *faults.History

	events chan Event

	mu          sync.Mutex
	active      Transport
	state       State
	attempt     int
	reconnects  int
	lastErr     error
	connectedAt time.Time
	userClosed  bool
	running     bool
	forceCh     chan struct{}
	done        chan struct{}
}

// NewClient creates a connection wrapper. fallback may be nil to disable
// transport fallback.
func NewClient(opts Options, primary, fallback Transport, history *faults.History, log *slog.Logger) *Client {
	opts.normalize()
	c := &Client{
		opts:     opts,
		primary:  primary,
		fallback: fallback,
		active:   primary,
		logger:   log,
		history:  history,
		events:   make(chan Event, 64),
		state:    StateInitializing,
		forceCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	return c
}

// Events returns the typed inbound event stream, including locally
// emitted StateChange events. The channel closes when the run loop ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns cumulative connection counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		State:          c.state,
		Transport:      c.active.Name(),
		Reconnects:     c.reconnects,
		CurrentAttempt: c.attempt,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	if !c.connectedAt.IsZero() && c.state == StateConnected {
		s.ConnectedSinceS = c.connectedAt.Unix()
	}
	return s
}

// Start launches the connection loop. It returns immediately; progress
// is observable via StateChange events.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("realtime client already started")
	}
	c.running = true
	c.userClosed = false
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

// Close shuts the connection down. The disconnect is user-initiated, so
// no automatic reconnection follows.
func (c *Client) Close() {
	c.mu.Lock()
	if c.userClosed {
		c.mu.Unlock()
		return
	}
	c.userClosed = true
	active := c.active
	c.mu.Unlock()

	_ = active.Close()
	c.signalForce()
}

// Done is closed when the run loop has fully stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ForceReconnect resets the attempt counter and backoff to their initial
// values and re-enters reconnecting. It is the manual recovery path out
// of the failed state.
func (c *Client) ForceReconnect() {
	c.mu.Lock()
	c.attempt = 0
	active := c.active
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		// Break the read loop so the run loop reconnects.
		_ = active.Close()
	}
	c.signalForce()
}

func (c *Client) signalForce() {
	select {
	case c.forceCh <- struct{}{}:
	default:
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	for {
		if ctx.Err() != nil || c.isUserClosed() {
			c.setState(StateDisconnected, nil)
			return
		}

		active := c.activeTransport()
		if err := active.Connect(ctx); err != nil {
			if !c.handleConnectError(ctx, err) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.attempt > 0 {
			c.reconnects++
		}
		c.attempt = 0
		c.connectedAt = time.Now()
		c.mu.Unlock()
		c.setState(StateConnected, nil)

		readErr := c.readLoop(ctx, active)
		_ = active.Close()

		if ctx.Err() != nil || c.isUserClosed() {
			c.setState(StateDisconnected, nil)
			return
		}

		c.recordError(readErr)
		c.setState(StateDisconnected, readErr)
		if !c.waitNextAttempt(ctx) {
			return
		}
	}
}

// handleConnectError classifies a failed connect and decides how to
// proceed. Returns false when the run loop must stop.
func (c *Client) handleConnectError(ctx context.Context, err error) bool {
	c.recordError(err)
	cat := faults.Classify(err, c.activeTransport().Name())

	switch cat {
	case faults.CategoryCORS:
		c.setState(StateCORSError, err)
		if c.activeTransport().Name() == TransportWebSocket && c.fallback != nil {
			c.logger.Warn("cross-origin policy blocked websocket, falling back to polling transport",
				"error", err)
			c.mu.Lock()
			c.active = c.fallback
			c.mu.Unlock()
			c.setState(StateRecovering, nil)
			// The fallback retry is a recovery step, not a counted
			// reconnection attempt.
			return c.sleep(ctx, c.opts.CORSFallbackDelay)
		}
	case faults.CategoryAuth:
		// Requires user action; automatic reconnection would loop on
		// the same rejection.
		c.setState(StateAuthError, err)
		return false
	default:
		c.setState(StateTransportError, err)
	}

	return c.waitNextAttempt(ctx)
}

// waitNextAttempt increments the attempt counter, sleeps the backoff
// delay, and reports whether the loop should try again. Exceeding the
// maximum attempts parks in the failed state until ForceReconnect.
func (c *Client) waitNextAttempt(ctx context.Context) bool {
	c.mu.Lock()
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	if attempt > c.opts.MaxAttempts {
		c.setState(StateFailed, c.lastError())
		c.logger.Error("reconnection attempts exhausted, manual retry required",
			"attempts", c.opts.MaxAttempts)
		select {
		case <-ctx.Done():
			return false
		case <-c.forceCh:
			if c.isUserClosed() {
				return false
			}
			c.setState(StateReconnecting, nil)
			return true
		}
	}

	delay := c.opts.Backoff.Delay(attempt)
	c.setState(StateReconnecting, nil)
	c.logger.Info("scheduling reconnection attempt",
		"attempt", attempt, "maxAttempts", c.opts.MaxAttempts, "delay", delay)

	select {
	case <-ctx.Done():
		return false
	case <-c.forceCh:
		return !c.isUserClosed()
	case <-time.After(delay):
		return true
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// readLoop decodes inbound frames until the transport fails or the
// context ends. Every frame is validated at this boundary.
func (c *Client) readLoop(ctx context.Context, t Transport) error {
	pingStop := c.startPinger(ctx, t)
	defer pingStop()

	for {
		env, err := t.Read()
		if err != nil {
			return err
		}

		ev, err := DecodeEvent(env)
		if err != nil {
			c.logger.Warn("dropping undecodable realtime event", "error", err)
			continue
		}

		c.deliver(ev)
	}
}

// startPinger sends periodic pings when configured. The returned func
// stops the pinger; it is part of the canonical teardown so no timer
// outlives the connection.
func (c *Client) startPinger(ctx context.Context, t Transport) func() {
	if c.opts.PingInterval <= 0 {
		return func() {}
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := t.Send(ctx, Envelope{Type: EventPing}); err != nil {
					c.logger.Debug("ping failed", "error", err)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// deliver pushes an event to subscribers. Events are advisory UI input;
// when the consumer lags the oldest buffered event is dropped rather
// than blocking the read loop.
func (c *Client) deliver(ev Event) {
	select {
	case c.events <- ev:
	default:
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}
	}
}

func (c *Client) setState(to State, err error) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	attempt := c.attempt
	reconnects := c.reconnects
	c.mu.Unlock()

	c.logger.Debug("connection state changed",
		"from", from, "to", to, "attempt", attempt, "reconnects", reconnects)

	c.deliver(&StateChange{
		From:       from,
		To:         to,
		Attempt:    attempt,
		Reconnects: reconnects,
		Err:        err,
	})
}

func (c *Client) activeTransport() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) isUserClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userClosed
}

func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if c.history != nil {
		c.history.Observe(err, c.activeTransport().Name())
	}
}

func (c *Client) lastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// send emits an outbound event when connected.
func (c *Client) send(ctx context.Context, typ EventType, payload any) error {
	c.mu.Lock()
	state := c.state
	active := c.active
	c.mu.Unlock()

	if state != StateConnected {
		return fmt.Errorf("cannot send %s: connection is %s", typ, state)
	}

	env := Envelope{Type: typ}
	if payload != nil {
		data, err := marshalPayload(payload)
		if err != nil {
			return err
		}
		env.Data = data
	}
	return active.Send(ctx, env)
}

// taskRef is the payload for task-scoped outbound events.
type taskRef struct {
	TaskID string `json:"task_id"`
}

// roomRef is the payload for room membership events.
type roomRef struct {
	Room string `json:"room"`
}

// JoinTask subscribes this connection to a task's progress events.
func (c *Client) JoinTask(ctx context.Context, taskID string) error {
	return c.send(ctx, EventJoinTask, taskRef{TaskID: taskID})
}

// LeaveTask unsubscribes from a task's progress events.
func (c *Client) LeaveTask(ctx context.Context, taskID string) error {
	return c.send(ctx, EventLeaveTask, taskRef{TaskID: taskID})
}

// JoinRoom subscribes to a named broadcast room.
func (c *Client) JoinRoom(ctx context.Context, room string) error {
	return c.send(ctx, EventJoinRoom, roomRef{Room: room})
}

// LeaveRoom unsubscribes from a named broadcast room.
func (c *Client) LeaveRoom(ctx context.Context, room string) error {
	return c.send(ctx, EventLeaveRoom, roomRef{Room: room})
}

// CancelTask requests cancellation over the realtime channel.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	return c.send(ctx, EventCancelTask, taskRef{TaskID: taskID})
}

// RequestTaskStatus asks the server to push a fresh status snapshot.
func (c *Client) RequestTaskStatus(ctx context.Context, taskID string) error {
	return c.send(ctx, EventGetTaskStatus, taskRef{TaskID: taskID})
}

// Ping sends a liveness probe; the server answers with pong.
func (c *Client) Ping(ctx context.Context) error {
	return c.send(ctx, EventPing, nil)
}
