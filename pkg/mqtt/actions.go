package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/google/uuid"
)

// Publisher is the part of MqttCommunicator used by ActionPublisher
type Publisher interface {
	Publish(topic string, payload interface{}) error
	IsConnected() bool
}

// ActionMessage is the JSON body published for every moderation action
type ActionMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Remaining *int      `json:"remaining,omitempty"`
	Text      string    `json:"text,omitempty"`
	Broken    []string  `json:"broken,omitempty"`
	At        time.Time `json:"at"`
}

// ActionTopic returns the topic an action kind is published on
func ActionTopic(kind string) string {
	return fmt.Sprintf("%s/actions/%s", TopicRoot, kind)
}

// ActionPublisher mirrors moderation actions onto the MQTT bus
type ActionPublisher struct {
	pub Publisher
	now func() time.Time
}

// NewActionPublisher creates a publisher sink
func NewActionPublisher(pub Publisher) *ActionPublisher {
	return &ActionPublisher{pub: pub, now: time.Now}
}

// MessageFor converts an action into its bus message
func MessageFor(action moderation.Action) ActionMessage {
	msg := ActionMessage{Kind: action.Kind()}
	switch a := action.(type) {
	case moderation.DeleteMessage:
		msg.ChatID, msg.MessageID = a.ChatID, a.MessageID
	case moderation.WarnUser:
		remaining := a.Remaining
		msg.ChatID, msg.UserID, msg.Remaining = a.ChatID, a.UserID, &remaining
	case moderation.KickUser:
		msg.ChatID, msg.UserID = a.ChatID, a.UserID
	case moderation.PostReport:
		msg.ChatID, msg.Text = a.ChatID, a.Text
		for _, link := range a.Broken {
			msg.Broken = append(msg.Broken, link.URL)
		}
	}
	return msg
}

// Apply implements moderation.ActionSink. Actions are dropped while the
// broker is unreachable.
func (p *ActionPublisher) Apply(_ context.Context, action moderation.Action) error {
	if p.pub == nil || !p.pub.IsConnected() {
		return nil
	}

	msg := MessageFor(action)
	msg.ID = uuid.NewString()
	msg.At = p.now()

	if err := p.pub.Publish(ActionTopic(msg.Kind), msg); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", msg.Kind, err)
	}
	return nil
}
