// Package runtime carries commands from the bridge back into the embedded 3D
// runtime. Delivery is fire-and-forget: the page drains its outbox and
// forwards each command to the runtime by name.
package runtime

import (
	"sync"
	"time"
)

// Outbound command names understood by the runtime.
const (
	CommandAssessmentCompleted = "NotifyAssessmentCompleted"
	CommandTutorialStart       = "NotifyTutorialStart"
	CommandResetCamera         = "ResetCamera"
)

// Command is a single instruction for the runtime.
type Command struct {
	Name    string    `json:"name"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// AssessmentCompleted is the payload of CommandAssessmentCompleted.
type AssessmentCompleted struct {
	ScenarioID string `json:"scenarioId"`
	Success    bool   `json:"success"`
}

// Notifier sends commands to the runtime.
type Notifier interface {
	Send(cmd Command)
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Outbox buffers commands for one page up to a fixed capacity. When full,
// new commands are dropped.
type Outbox struct {
	mu       sync.Mutex
	pending  []Command
	capacity int
	logger   Logger
	now      func() time.Time
}

// NewOutbox creates an Outbox. capacity <= 0 selects a default of 64.
func NewOutbox(capacity int, logger Logger) *Outbox {
	if capacity <= 0 {
		capacity = 64
	}
	return &Outbox{capacity: capacity, logger: logger, now: time.Now}
}

// Send queues cmd without blocking.
func (o *Outbox) Send(cmd Command) {
	if cmd.SentAt.IsZero() {
		cmd.SentAt = o.now().UTC()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) >= o.capacity {
		if o.logger != nil {
			o.logger.Warn("runtime outbox full, dropping command", "command", cmd.Name)
		}
		return
	}
	o.pending = append(o.pending, cmd)
}

// Drain returns and clears the queued commands in send order.
func (o *Outbox) Drain() []Command {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.pending
	o.pending = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

// Len reports the number of queued commands.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}
