// Package realtime wraps the persistent server connection: transport
// selection and fallback, reconnection with capped exponential backoff,
// and typed event delivery.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/vedfolnir/console/internal/api"
)

// EventType names the realtime events exchanged with the server.
type EventType string

// Inbound event types. Connection lifecycle (connect, disconnect,
// reconnection progress) is not received from the server; the Client
// emits it locally as StateChange events.
const (
	EventError EventType = "error"
	EventPong  EventType = "pong"

	EventCaptionProgress   EventType = "caption_progress"
	EventCaptionStatus     EventType = "caption_status"
	EventCaptionComplete   EventType = "caption_complete"
	EventCaptionError      EventType = "caption_error"
	EventSystemMaintenance EventType = "system_maintenance"
	EventNotification      EventType = "notification"
	EventAdminAlert        EventType = "admin_alert"
	EventJobUpdate         EventType = "job_update"
)

// Outbound event types.
const (
	EventJoinRoom      EventType = "join_room"
	EventLeaveRoom     EventType = "leave_room"
	EventJoinTask      EventType = "join_task"
	EventLeaveTask     EventType = "leave_task"
	EventCancelTask    EventType = "cancel_task"
	EventGetTaskStatus EventType = "get_task_status"
	EventPing          EventType = "ping"
)

// Envelope is the wire frame for realtime events.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is the decoded, typed form of an inbound realtime event.
// Payloads are validated at the boundary where they are received;
// consumers never see raw duck-typed maps.
type Event interface {
	EventType() EventType
}

// CaptionProgress reports incremental task progress.
type CaptionProgress struct {
	TaskID          string            `json:"task_id"`
	ProgressPercent float64           `json:"progress_percent"`
	CurrentStep     string            `json:"current_step,omitempty"`
	ProgressDetails map[string]string `json:"progress_details,omitempty"`
}

func (CaptionProgress) EventType() EventType { return EventCaptionProgress }

// CaptionStatus carries a full task status snapshot.
type CaptionStatus struct {
	Status api.TaskStatus `json:"status"`
}

func (CaptionStatus) EventType() EventType { return EventCaptionStatus }

// CaptionComplete announces a terminal successful task.
type CaptionComplete struct {
	TaskID  string          `json:"task_id"`
	Results api.TaskResults `json:"results"`
}

func (CaptionComplete) EventType() EventType { return EventCaptionComplete }

// CaptionError announces a terminal failed task.
type CaptionError struct {
	TaskID              string   `json:"task_id"`
	Message             string   `json:"message"`
	Code                string   `json:"code,omitempty"`
	RecoverySuggestions []string `json:"recovery_suggestions,omitempty"`
}

func (CaptionError) EventType() EventType { return EventCaptionError }

// SystemMaintenance announces planned server maintenance.
type SystemMaintenance struct {
	Message     string `json:"message"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}

func (SystemMaintenance) EventType() EventType { return EventSystemMaintenance }

// ServerNotification is a server-pushed user notification.
type ServerNotification struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

func (ServerNotification) EventType() EventType { return EventNotification }

// AdminAlert is a high-priority notification for administrators.
type AdminAlert struct {
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

func (AdminAlert) EventType() EventType { return EventAdminAlert }

// JobUpdate is a generic job state change.
type JobUpdate struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (JobUpdate) EventType() EventType { return EventJobUpdate }

// ServerError is a server-pushed error frame. The code, when present,
// feeds the error classifier.
type ServerError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (ServerError) EventType() EventType { return EventError }

// Pong acknowledges a ping.
type Pong struct{}

func (Pong) EventType() EventType { return EventPong }

// StateChange is emitted locally on every connection state transition.
type StateChange struct {
	From       State
	To         State
	Attempt    int
	Reconnects int
	Err        error
}

func (StateChange) EventType() EventType { return EventType("state_change") }

// marshalPayload encodes an outbound payload as the envelope data field.
func marshalPayload(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return data, nil
}

// DecodeEvent validates and decodes an envelope into its typed event.
// Unknown event types are an error so protocol drift is visible.
func DecodeEvent(env Envelope) (Event, error) {
	var ev Event
	switch env.Type {
	case EventCaptionProgress:
		ev = &CaptionProgress{}
	case EventCaptionStatus:
		ev = &CaptionStatus{}
	case EventCaptionComplete:
		ev = &CaptionComplete{}
	case EventCaptionError:
		ev = &CaptionError{}
	case EventSystemMaintenance:
		ev = &SystemMaintenance{}
	case EventNotification:
		ev = &ServerNotification{}
	case EventAdminAlert:
		ev = &AdminAlert{}
	case EventJobUpdate:
		ev = &JobUpdate{}
	case EventError:
		ev = &ServerError{}
	case EventPong:
		return &Pong{}, nil
	default:
		return nil, fmt.Errorf("unknown realtime event type %q", env.Type)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	}
	return ev, nil
}
