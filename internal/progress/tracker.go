// Package progress tracks a caption generation task through realtime
// events, with HTTP polling as a staleness guard, and drives the
// progress notification through to the task's terminal state.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/notify"
	"github.com/vedfolnir/console/internal/realtime"
)

// rateSmoothing is the EWMA weight for the progress rate estimate.
const rateSmoothing = 0.3

// Tracker follows one task. Realtime events are the primary source;
// when no update arrives within the staleness guard the tracker polls
// the status endpoint, and while the connection is degraded it polls at
// the short fallback interval instead.
type Tracker struct {
	taskID string
	client *api.Client
	center *notify.Center
	logger *slog.Logger

	redirector *Redirector

	pollInterval   time.Duration
	stalenessGuard time.Duration

	mu             sync.Mutex
	notificationID string
	lastUpdate     time.Time
	lastPercent    float64
	rate           float64 // percent per second, smoothed
	degraded       bool
	finalState     api.TaskState
}

// NewTracker creates a tracker for taskID. redirector may be nil to
// disable post-completion navigation.
func NewTracker(taskID string, client *api.Client, center *notify.Center, redirector *Redirector, log *slog.Logger) *Tracker {
	return &Tracker{
		taskID:         taskID,
		client:         client,
		center:         center,
		logger:         log,
		redirector:     redirector,
		pollInterval:   constants.ProgressPollInterval,
		stalenessGuard: constants.ProgressStalenessGuard,
	}
}

// FinalState returns the terminal state the task reached, or "" while
// the task is still running.
func (t *Tracker) FinalState() api.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalState
}

// Run consumes realtime events until the task reaches a terminal state
// or the context ends. An initial poll establishes the baseline so a
// task that completed before subscription is not waited on forever.
func (t *Tracker) Run(ctx context.Context, events <-chan realtime.Event) error {
	t.mu.Lock()
	t.notificationID = t.center.Render(notify.Notification{
		Type:    notify.TypeProgress,
		Title:   "Generating Captions",
		Message: "Starting caption generation...",
	})
	t.lastUpdate = time.Now()
	t.mu.Unlock()

	if err := t.poll(ctx); err != nil {
		t.logger.Warn("initial task status poll failed", "task_id", t.taskID, "error", err)
	}

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		if t.FinalState() != "" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("realtime event stream closed while tracking task %s", t.taskID)
			}
			t.handleEvent(ctx, ev)
		case <-ticker.C:
			if t.shouldPoll() {
				if err := t.poll(ctx); err != nil {
					t.logger.Warn("task status poll failed", "task_id", t.taskID, "error", err)
				}
			}
		}
	}
}

// shouldPoll reports whether the realtime feed has gone quiet for too
// long. A degraded connection polls every tick.
func (t *Tracker) shouldPoll() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.degraded {
		return true
	}
	return time.Since(t.lastUpdate) >= t.stalenessGuard
}

func (t *Tracker) handleEvent(ctx context.Context, ev realtime.Event) {
	switch e := ev.(type) {
	case *realtime.CaptionProgress:
		if e.TaskID != t.taskID {
			return
		}
		t.applyProgress(e.ProgressPercent, e.CurrentStep)
	case *realtime.CaptionStatus:
		if e.Status.TaskID != t.taskID {
			return
		}
		t.applyStatus(ctx, e.Status)
	case *realtime.CaptionComplete:
		if e.TaskID != t.taskID {
			return
		}
		t.complete(ctx, e.Results)
	case *realtime.CaptionError:
		if e.TaskID != t.taskID {
			return
		}
		t.fail(e.Message, e.RecoverySuggestions)
	case *realtime.JobUpdate:
		if e.JobID != t.taskID {
			return
		}
		// The job_update payload carries no progress detail; fetch the
		// full snapshot instead.
		if err := t.poll(ctx); err != nil {
			t.logger.Warn("task status poll failed", "task_id", t.taskID, "error", err)
		}
	case *realtime.StateChange:
		degraded := e.To != realtime.StateConnected
		t.mu.Lock()
		t.degraded = degraded
		t.mu.Unlock()
		if degraded {
			t.logger.Debug("realtime degraded, polling task status",
				"task_id", t.taskID, "state", e.To)
		}
	}
}

// poll fetches the status snapshot over HTTP.
func (t *Tracker) poll(ctx context.Context) error {
	status, err := t.client.GetTaskStatus(ctx, t.taskID)
	if err != nil {
		return err
	}
	t.applyStatus(ctx, *status)
	return nil
}

// applyStatus folds a full snapshot into the tracker, handling terminal
// states.
func (t *Tracker) applyStatus(ctx context.Context, status api.TaskStatus) {
	switch status.Status {
	case api.TaskStateCompleted:
		results := api.TaskResults{}
		if status.Results != nil {
			results = *status.Results
		}
		t.complete(ctx, results)
	case api.TaskStateFailed:
		t.fail(status.ErrorMessage, status.RecoverySuggestions)
	case api.TaskStateCancelled:
		t.cancelled()
	default:
		t.applyProgress(status.ProgressPercent, status.CurrentStep)
	}
}

// applyProgress updates the progress notification and the rate estimate.
func (t *Tracker) applyProgress(percent float64, step string) {
	t.mu.Lock()
	if t.finalState != "" {
		t.mu.Unlock()
		return
	}

	now := time.Now()
	elapsed := now.Sub(t.lastUpdate).Seconds()
	if elapsed > 0 && percent > t.lastPercent {
		sample := (percent - t.lastPercent) / elapsed
		if t.rate == 0 {
			t.rate = sample
		} else {
			t.rate = rateSmoothing*sample + (1-rateSmoothing)*t.rate
		}
	}
	t.lastUpdate = now
	t.lastPercent = percent
	id := t.notificationID
	eta := t.etaLocked(percent)
	t.mu.Unlock()

	message := step
	if message == "" {
		message = "Processing images..."
	}
	if eta > 0 {
		message = fmt.Sprintf("%s (about %s remaining)", message, eta.Round(time.Second))
	}

	if err := t.center.Update(id, percent, message); err != nil {
		t.logger.Debug("progress notification update failed", "error", err)
	}
}

// etaLocked estimates time remaining from the smoothed rate. Returns 0
// when no estimate is possible yet.
func (t *Tracker) etaLocked(percent float64) time.Duration {
	if t.rate <= 0 || percent >= 100 {
		return 0
	}
	return time.Duration((100 - percent) / t.rate * float64(time.Second))
}

// complete finalizes the progress notification at 100%, announces the
// results, and schedules navigation to the review page.
func (t *Tracker) complete(ctx context.Context, results api.TaskResults) {
	if !t.finish(api.TaskStateCompleted) {
		return
	}

	t.mu.Lock()
	id := t.notificationID
	t.mu.Unlock()
	_ = t.center.Update(id, 100, "Finished")
	t.center.Dismiss(id)

	t.center.Render(notify.Notification{
		Type:  notify.TypeSuccess,
		Title: "Caption Generation Complete!",
		Message: fmt.Sprintf("Generated %d captions across %d images.",
			results.CaptionsGenerated, results.ImagesProcessed),
		AutoHide: true,
	})

	if t.redirector == nil {
		return
	}
	info, err := t.client.GetRedirectInfo(ctx, t.taskID)
	if err != nil {
		// Completion stands on its own; navigation is a convenience.
		t.logger.Warn("failed to fetch redirect info", "task_id", t.taskID, "error", err)
		return
	}
	t.redirector.Schedule(info.RedirectURL)
}

// fail surfaces the failure with the server's recovery suggestions and
// a retry action.
func (t *Tracker) fail(message string, suggestions []string) {
	if !t.finish(api.TaskStateFailed) {
		return
	}

	t.mu.Lock()
	id := t.notificationID
	t.mu.Unlock()
	t.center.Dismiss(id)

	if message == "" {
		message = "Caption generation failed."
	}
	for _, s := range suggestions {
		message += "\n  • " + s
	}

	taskID := t.taskID
	t.center.Render(notify.Notification{
		Type:    notify.TypeError,
		Title:   "Caption Generation Failed",
		Message: message,
		Actions: []notify.Action{{
			Label: "Retry",
			Tag:   "retry",
			Handler: func() {
				resp, err := t.client.RetryTask(context.Background(), taskID)
				if err != nil {
					t.logger.Error("task retry failed", "task_id", taskID, "error", err)
					return
				}
				t.logger.Info("task retried", "task_id", taskID, "new_task_id", resp.NewTaskID)
			},
		}},
	})
}

// cancelled announces the cancellation without retry or navigation.
func (t *Tracker) cancelled() {
	if !t.finish(api.TaskStateCancelled) {
		return
	}

	t.mu.Lock()
	id := t.notificationID
	t.mu.Unlock()
	t.center.Dismiss(id)

	t.center.Render(notify.Notification{
		Type:     notify.TypeInfo,
		Title:    "Caption Generation Cancelled",
		Message:  "The task was cancelled.",
		AutoHide: true,
	})
}

// finish records the terminal state once; later terminal signals for
// the same task are ignored.
func (t *Tracker) finish(state api.TaskState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalState != "" {
		return false
	}
	t.finalState = state
	return true
}
