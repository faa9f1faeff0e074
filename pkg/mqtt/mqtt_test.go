package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	sent      []published
	err       error
}

func (f *fakePublisher) Publish(topic string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, payload: payload})
	return nil
}

func (f *fakePublisher) IsConnected() bool { return f.connected }

type fakeResponder struct {
	handlers map[string]RequestHandler
}

func (f *fakeResponder) On(name string, callback RequestHandler) {
	if f.handlers == nil {
		f.handlers = make(map[string]RequestHandler)
	}
	f.handlers[name] = callback
}

func TestActionPublisherTopics(t *testing.T) {
	pub := &fakePublisher{connected: true}
	p := NewActionPublisher(pub)
	ctx := context.Background()

	require.NoError(t, p.Apply(ctx, moderation.WarnUser{ChatID: "c1", UserID: "u1", Remaining: 0}))
	require.NoError(t, p.Apply(ctx, moderation.PostReport{
		ChatID: "c1",
		Text:   "informe",
		Broken: []models.TrackedLink{{URL: "https://blndev.com/a"}},
	}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "channelguard/actions/warn_user", pub.sent[0].topic)
	assert.Equal(t, "channelguard/actions/post_report", pub.sent[1].topic)

	warn := pub.sent[0].payload.(ActionMessage)
	require.NotNil(t, warn.Remaining)
	assert.Equal(t, 0, *warn.Remaining)
	assert.NotEmpty(t, warn.ID)

	report := pub.sent[1].payload.(ActionMessage)
	assert.Equal(t, []string{"https://blndev.com/a"}, report.Broken)
}

func TestActionPublisherOffline(t *testing.T) {
	pub := &fakePublisher{connected: false}
	p := NewActionPublisher(pub)

	require.NoError(t, p.Apply(context.Background(), moderation.KickUser{ChatID: "c1", UserID: "u1"}))
	assert.Empty(t, pub.sent)
}

func TestActionPublisherError(t *testing.T) {
	pub := &fakePublisher{connected: true, err: errors.New("broker caído")}
	p := NewActionPublisher(pub)

	err := p.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c1", MessageID: "m1"})
	assert.ErrorContains(t, err, "delete_message")
}

func TestRegisterControl(t *testing.T) {
	r := &fakeResponder{}
	ticks := 0
	RegisterControl(r, ControlHandlers{
		Status: func() interface{} { return map[string]int{"links": 3} },
		Tick: func() error {
			ticks++
			return nil
		},
	})

	require.Contains(t, r.handlers, "status")
	require.Contains(t, r.handlers, "tick")

	data, err := r.handlers["status"](nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"links": 3}, data)

	_, err = r.handlers["tick"](nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ticks)
}

func TestAnswer(t *testing.T) {
	ok := answer(MqttRequest{CorrelationID: "abc"}, "status", func(p map[string]interface{}) (interface{}, error) {
		return p["_topic"], nil
	})
	assert.Equal(t, "abc", ok.CorrelationID)
	assert.Equal(t, "status", ok.Data)
	assert.Empty(t, ok.Error)

	failed := answer(MqttRequest{CorrelationID: "def"}, "tick", func(map[string]interface{}) (interface{}, error) {
		return nil, moderation.ErrStopped
	})
	assert.Equal(t, moderation.ErrStopped.Error(), failed.Error)
	assert.Nil(t, failed.Data)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "channelguard/request/status", requestTopic("status"))
	assert.Equal(t, "channelguard/response/status/42", responseTopic("status", "42"))
	assert.Equal(t, "channelguard/actions/kick_user", ActionTopic("kick_user"))
}
