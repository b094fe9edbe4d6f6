package publishers

import (
	"time"

	"github.com/google/uuid"
)

// Outcomes reported on dispatch events.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeDispatchErr  = "dispatch_error"
)

// Event represents the payload published downstream after a dispatch.
// Headers and bodies are never included; they may carry credentials.
type Event struct {
	ID                 string    `json:"id"`
	Method             string    `json:"method"`
	TargetURL          string    `json:"target_url"`
	StatusCode         *int      `json:"status_code,omitempty"`
	Outcome            string    `json:"outcome"`
	CredentialCaptured bool      `json:"credential_captured"`
	ElapsedMs          int64     `json:"elapsed_ms"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for a finished dispatch.
func NewEvent(method, targetURL, outcome string, statusCode *int, elapsed time.Duration) Event {
	return Event{
		ID:         uuid.NewString(),
		Method:     method,
		TargetURL:  targetURL,
		StatusCode: statusCode,
		Outcome:    outcome,
		ElapsedMs:  elapsed.Milliseconds(),
		OccurredAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue/topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"outcome": e.Outcome,
		"method":  e.Method,
	}
}
