// Package app wires the console's components together: configuration,
// API client, realtime connection, notifications, session sync, and the
// optional debug server. Commands receive a fully constructed App and
// never build dependencies themselves.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/config"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/debugsrv"
	"github.com/vedfolnir/console/internal/faults"
	"github.com/vedfolnir/console/internal/notify"
	"github.com/vedfolnir/console/internal/output"
	"github.com/vedfolnir/console/internal/progress"
	"github.com/vedfolnir/console/internal/realtime"
	"github.com/vedfolnir/console/internal/session"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options toggles optional subsystems.
type Options struct {
	// DebugServer starts the local diagnostic HTTP endpoint.
	DebugServer bool
}

// App is the composition root. Construction wires dependencies;
// Start launches the background loops; Shutdown is the canonical
// teardown that stops every timer and goroutine.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	API        *api.Client
	History    *faults.History
	Recoverer  *faults.Recoverer
	Center     *notify.Center
	Fallback   *notify.Fallback
	Session    *session.Syncer
	Redirector *progress.Redirector

	opts     Options
	realtime *realtime.Client

	// taskEvents is the fanned-out realtime stream consumed by trackers;
	// the dispatcher owns the raw stream so state transitions are never
	// lost to whichever tracker happens to be reading.
	taskEvents chan realtime.Event

	alertMu sync.Mutex
	// alertIDs holds the active notification per connection state so a
	// repeated failure replaces its alert instead of stacking.
	alertIDs map[realtime.State]string

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New constructs the app from configuration. Nothing is started yet.
func New(cfg *config.Config, log *slog.Logger, opts Options) (*App, error) {
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("api_endpoint is not configured; run 'vedfolnir configure' first")
	}

	a := &App{
		Config:     cfg,
		Logger:     log,
		History:    faults.NewHistory(constants.ErrorHistoryCap),
		opts:       opts,
		taskEvents: make(chan realtime.Event, 64),
		alertIDs:   make(map[realtime.State]string),
	}

	a.API = api.NewClient(cfg.APIEndpoint, api.Options{
		CSRFTokenSeed: cfg.CSRFTokenSeed,
		CSRFTokenTTL:  cfg.CSRFTokenTTL,
	}, log)

	a.Center = notify.NewCenter(
		notify.NewTerminalRenderer(os.Stdout),
		cfg.MaxActiveNotifications,
		log,
	)
	a.Fallback = notify.NewFallback([]notify.Channel{
		notify.NewCenterChannel(a.Center),
		notify.NewDesktopChannel(cfg.DesktopNotifications),
		notify.NewBannerChannel(os.Stdout),
		notify.NewLogChannel(log),
		notify.NewTitleFlashChannel(os.Stdout),
	}, log)

	a.Recoverer = faults.NewRecoverer(0, log)
	a.Redirector = progress.NewRedirector(a.navigate, log)

	stateDir, err := config.StateDir()
	if err != nil {
		return nil, err
	}
	store := session.NewStore(
		filepath.Join(stateDir, constants.SessionStateFileName),
		uuid.NewString(),
	)
	a.Session = session.NewSyncer(a.API, store, a.Fallback, session.Callbacks{
		OnPlatformChange: a.onPlatformChange,
		OnLoginRequired:  a.onLoginRequired,
	}, log)
	a.Session.SetPollInterval(cfg.SessionPollInterval)

	return a, nil
}

// Start launches the background loops: fallback notification drain,
// session sync, the realtime connection, and optionally the debug
// server. It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	a.group = g

	a.Fallback.Start(gctx)

	g.Go(func() error {
		err := a.Session.Run(gctx)
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("session sync stopped: %w", err)
		}
		return nil
	})

	if err := a.startRealtime(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		a.dispatchEvents(gctx, a.realtime.Events())
		return nil
	})

	if a.opts.DebugServer {
		srv := debugsrv.New(a.Config.DebugListenAddr, a.History, a.realtime, a.Logger)
		g.Go(func() error { return srv.Serve(gctx) })
	}

	return nil
}

// startRealtime builds the connection from layered options (local
// config over server client-config over built-in defaults) and starts
// the run loop.
func (a *App) startRealtime(ctx context.Context) error {
	opts := realtime.Options{
		Backoff: realtime.Backoff{
			Base:        a.Config.ReconnectBaseDelay,
			Factor:      constants.ReconnectFactor,
			Max:         a.Config.ReconnectMaxDelay,
			SlowNetwork: a.Config.SlowNetwork,
		},
		MaxAttempts: a.Config.ReconnectMaxAttempts,
	}

	if cc, err := a.API.GetClientConfig(ctx); err == nil {
		opts.ApplyServerDefaults(cc)
	} else {
		a.Logger.Debug("server client-config unavailable, using built-in defaults", "error", err)
	}

	a.realtime = realtime.NewClient(
		opts,
		realtime.NewWebSocketTransport(a.websocketURL(), a.API.CSRF()),
		realtime.NewPollingTransport(a.API),
		a.History,
		a.Logger,
	)
	a.registerRecoveryStrategies()
	return a.realtime.Start(ctx)
}

// registerRecoveryStrategies binds the strategy names from the error
// profiles to their implementations. Transport fallback is owned by the
// realtime client itself and needs no registration here.
func (a *App) registerRecoveryStrategies() {
	a.Recoverer.Register(faults.StrategyReconnect, func(context.Context) error {
		a.realtime.ForceReconnect()
		return nil
	})
	a.Recoverer.Register(faults.StrategyWaitAndRetry, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.CORSFallbackDelay):
		}
		a.realtime.ForceReconnect()
		return nil
	})
	a.Recoverer.Register(faults.StrategyRefreshSession, func(ctx context.Context) error {
		a.API.CSRF().Invalidate()
		_, err := a.API.GetSessionState(ctx)
		return err
	})
}

// Realtime returns the connection wrapper, valid after Start.
func (a *App) Realtime() *realtime.Client {
	return a.realtime
}

// Events returns the fanned-out realtime event stream. It closes when
// the dispatcher stops.
func (a *App) Events() <-chan realtime.Event {
	return a.taskEvents
}

// dispatchEvents fans the raw realtime stream out: state transitions
// become user notifications and recovery attempts, server error frames
// are classified into the history, and everything is forwarded to
// Events() for trackers.
func (a *App) dispatchEvents(ctx context.Context, in <-chan realtime.Event) {
	defer close(a.taskEvents)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case *realtime.StateChange:
				a.handleStateChange(ctx, e)
			case *realtime.ServerError:
				cat := a.History.Observe(faults.New(e.Code, e.Message, nil), "realtime")
				a.Logger.Warn("server reported an error",
					"category", cat, "code", e.Code, "message", e.Message)
			}
			a.forward(ev)
		}
	}
}

// forward pushes an event to trackers, dropping the oldest buffered
// event rather than blocking the dispatcher when no tracker is reading.
func (a *App) forward(ev realtime.Event) {
	select {
	case a.taskEvents <- ev:
	default:
		select {
		case <-a.taskEvents:
		default:
		}
		select {
		case a.taskEvents <- ev:
		default:
		}
	}
}

// handleStateChange surfaces terminal connection states as notifications
// and drives automatic recovery. Auth failures and exhausted retries
// must never pass silently.
func (a *App) handleStateChange(ctx context.Context, sc *realtime.StateChange) {
	switch sc.To {
	case realtime.StateCORSError:
		// The realtime client performs the transport fallback itself;
		// the user only needs to see why the transport is changing.
		a.alert(sc.To, faults.CategoryCORS, nil)
	case realtime.StateAuthError:
		a.alert(sc.To, faults.CategoryAuth, nil)
		go a.attemptRecovery(ctx, faults.CategoryAuth)
	case realtime.StateFailed:
		cat := faults.Classify(sc.Err, "realtime")
		retry := notify.Action{
			Label:   "Retry",
			Tag:     "retry",
			Handler: func() { a.retryConnection(cat) },
		}
		a.alert(sc.To, cat, []notify.Action{retry})
		go a.attemptRecovery(ctx, cat)
	}
}

// alert renders the category's profile as a notification, replacing any
// previous alert for the same connection state.
func (a *App) alert(state realtime.State, cat faults.Category, actions []notify.Action) {
	profile := faults.ProfileFor(cat)

	message := profile.Description
	for _, action := range profile.UserActions {
		message += "\n  • " + action
	}

	typ := notify.TypeWarning
	switch profile.Severity {
	case faults.SeverityError:
		typ = notify.TypeError
	case faults.SeverityInfo:
		typ = notify.TypeInfo
	}

	a.alertMu.Lock()
	prior := a.alertIDs[state]
	a.alertMu.Unlock()
	if prior != "" {
		a.Center.Dismiss(prior)
	}

	id := a.Center.Render(notify.Notification{
		Type:    typ,
		Title:   profile.Icon + " " + profile.Title,
		Message: message,
		Actions: actions,
	})

	a.alertMu.Lock()
	a.alertIDs[state] = id
	a.alertMu.Unlock()
}

// attemptRecovery runs the category's strategies. Exhaustion is not an
// extra notification: the state alert already carries the manual
// next-step actions.
func (a *App) attemptRecovery(ctx context.Context, cat faults.Category) {
	res, err := a.Recoverer.Attempt(ctx, cat)
	switch {
	case err != nil:
		a.Logger.Warn("automatic recovery failed", "category", cat, "error", err)
	case res.Recovered:
		a.Logger.Info("automatic recovery succeeded",
			"category", cat, "strategy", res.Strategy)
	}
}

// retryConnection is the manual-recovery action: clear the category's
// attempt counter and force a reconnect.
func (a *App) retryConnection(cat faults.Category) {
	a.Recoverer.Reset(cat)
	if a.realtime != nil {
		a.realtime.ForceReconnect()
	}
}

// Watch tracks a task to its terminal state, subscribing over the
// realtime connection and rendering progress notifications.
func (a *App) Watch(ctx context.Context, taskID string) (api.TaskState, error) {
	if err := a.realtime.JoinTask(ctx, taskID); err != nil {
		// Not yet connected; the staleness-guard poll covers the gap and
		// the subscription is retried implicitly on reconnect.
		a.Logger.Debug("task subscription deferred", "task_id", taskID, "error", err)
	}
	defer func() {
		_ = a.realtime.LeaveTask(context.Background(), taskID)
	}()

	tracker := progress.NewTracker(taskID, a.API, a.Center, a.Redirector, a.Logger)
	if err := tracker.Run(ctx, a.Events()); err != nil {
		return "", err
	}
	return tracker.FinalState(), nil
}

// Shutdown is the canonical teardown: stop the connection, cancel the
// background loops, clear all pending timers, and wait for goroutines.
func (a *App) Shutdown() {
	if a.realtime != nil {
		a.realtime.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.Redirector.Cancel()
	a.Center.Close()
	if a.group != nil {
		if err := a.group.Wait(); err != nil {
			a.Logger.Warn("background loop exited with error", "error", err)
		}
	}
	if a.realtime != nil {
		<-a.realtime.Done()
	}
}

// navigate is the post-completion navigation target. The console cannot
// change pages, so it surfaces the destination URL prominently.
func (a *App) navigate(url string) {
	if !strings.HasPrefix(url, "http") && a.Config.WebURL != "" {
		url = strings.TrimSuffix(a.Config.WebURL, "/") + url
	}
	output.Blank()
	output.Successf("Review your captions: %s", output.Cyan(url))
}

func (a *App) onPlatformChange(p *api.Platform) {
	if p == nil {
		return
	}
	a.Fallback.Notify(
		fmt.Sprintf("Switched to platform %q (%s)", p.Name, p.PlatformType),
		notify.TypeInfo,
	)
}

// onLoginRequired fires after the post-expiry grace delay.
func (a *App) onLoginRequired() {
	loginURL := strings.TrimSuffix(a.Config.WebURL, "/") + "/login"
	output.Blank()
	output.Warningf("Session expired. Log in again at %s", output.Cyan(loginURL))
}

// websocketURL resolves the realtime endpoint, deriving it from the API
// endpoint when not configured explicitly.
func (a *App) websocketURL() string {
	if a.Config.WebSocketEndpoint != "" {
		return a.Config.WebSocketEndpoint
	}
	u := a.Config.APIEndpoint
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimSuffix(u, "/") + "/ws"
}
