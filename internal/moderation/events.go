// Package moderation implements the link-lifecycle and warning-escalation
// engine behind the channel guard: it decides which messages are removed,
// which members are warned or kicked, and which tracked links are reported
// as broken.
//
// The messaging layer never calls into the stores directly. It feeds events
// to an Engine and carries out the actions it gets back.
package moderation

import (
	"context"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

// Event is anything the engine reacts to
type Event interface {
	eventName() string
}

// NewMessage is a member message that may contain links
type NewMessage struct {
	ChatID    string
	UserID    string
	MessageID string
	Text      string
	Links     []string
	// SentAt is the platform timestamp. When zero the engine clock is used.
	SentAt time.Time
}

// ServiceKind distinguishes join and leave notices
type ServiceKind int

const (
	ServiceJoin ServiceKind = iota
	ServiceLeave
)

// String returns the string representation of the kind
func (k ServiceKind) String() string {
	if k == ServiceLeave {
		return "leave"
	}
	return "join"
}

// ServiceMessage is a system notice such as "X joined the channel"
type ServiceMessage struct {
	ChatID    string
	MessageID string
	Kind      ServiceKind
}

// MessageDeleted is emitted when a message disappears from the channel
type MessageDeleted struct {
	ChatID    string
	MessageID string
}

// Tick triggers revalidation and expiry of the tracked links
type Tick struct{}

// tickResult carries finished probes back onto the event loop
type tickResult struct {
	batch   tickBatch
	results []probeResult
}

func (NewMessage) eventName() string     { return "new_message" }
func (ServiceMessage) eventName() string { return "service_message" }
func (MessageDeleted) eventName() string { return "message_deleted" }
func (Tick) eventName() string           { return "tick" }
func (tickResult) eventName() string     { return "tick_result" }

// Action is a decision handed back to the messaging layer
type Action interface {
	Kind() string
}

// DeleteMessage removes a message from a channel
type DeleteMessage struct {
	ChatID    string
	MessageID string
}

// WarnUser notifies a member of a violation and of the warnings left
type WarnUser struct {
	ChatID    string
	UserID    string
	Remaining int
}

// KickUser removes a member that reached the warning threshold
type KickUser struct {
	ChatID string
	UserID string
}

// PostReport publishes the aggregated link check summary
type PostReport struct {
	ChatID string
	Text   string
	// Broken lists the links reported as broken, for sinks that want structure.
	Broken []models.TrackedLink
}

func (DeleteMessage) Kind() string { return "delete_message" }
func (WarnUser) Kind() string      { return "warn_user" }
func (KickUser) Kind() string      { return "kick_user" }
func (PostReport) Kind() string    { return "post_report" }

// ActionSink carries out actions produced by the engine
type ActionSink interface {
	Apply(ctx context.Context, action Action) error
}

// SinkFunc adapts a function to ActionSink
type SinkFunc func(ctx context.Context, action Action) error

// Apply calls f(ctx, action)
func (f SinkFunc) Apply(ctx context.Context, action Action) error {
	return f(ctx, action)
}

// MultiSink applies every action to each sink in order. A failing sink
// does not prevent the remaining ones from running; the first error is
// returned.
type MultiSink []ActionSink

// Apply implements ActionSink
func (m MultiSink) Apply(ctx context.Context, action Action) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Apply(ctx, action); err != nil && first == nil {
			first = err
		}
	}
	return first
}
