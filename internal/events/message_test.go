package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	mu     sync.Mutex
	events []moderation.Event
	err    error
}

func (r *recordingEngine) Submit(_ context.Context, ev moderation.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type guildMap map[string]string

func (g guildMap) RememberGuild(channelID, guildID string) { g[channelID] = guildID }

func sessionAs(botID string) *discordgo.Session {
	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: botID}
	return s
}

func TestTranslateMessage(t *testing.T) {
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev, ok := TranslateMessage(&discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Type:      discordgo.MessageTypeDefault,
		Author:    &discordgo.User{ID: "u1"},
		Content:   "mira https://blndev.com/a y https://otro.net",
		Timestamp: sent,
	}, "bot")
	require.True(t, ok)

	msg, isMsg := ev.(moderation.NewMessage)
	require.True(t, isMsg)
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "m1", msg.MessageID)
	assert.Len(t, msg.Links, 2)
	assert.Equal(t, sent, msg.SentAt)
}

func TestTranslateMessageJoinNotice(t *testing.T) {
	ev, ok := TranslateMessage(&discordgo.Message{
		ID:        "m2",
		ChannelID: "c1",
		Type:      discordgo.MessageTypeGuildMemberJoin,
		Author:    &discordgo.User{ID: "u2"},
	}, "bot")
	require.True(t, ok)
	assert.Equal(t, moderation.ServiceMessage{ChatID: "c1", MessageID: "m2", Kind: moderation.ServiceJoin}, ev)
}

func TestTranslateMessageIgnored(t *testing.T) {
	tests := []struct {
		name string
		msg  *discordgo.Message
	}{
		{"nil", nil},
		{"bot author", &discordgo.Message{Type: discordgo.MessageTypeDefault, Author: &discordgo.User{ID: "x", Bot: true}}},
		{"self", &discordgo.Message{Type: discordgo.MessageTypeDefault, Author: &discordgo.User{ID: "bot"}}},
		{"no author", &discordgo.Message{Type: discordgo.MessageTypeDefault}},
		{"pin notice", &discordgo.Message{Type: discordgo.MessageTypeChannelPinnedMessage, Author: &discordgo.User{ID: "u"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := TranslateMessage(tt.msg, "bot")
			assert.False(t, ok)
		})
	}
}

func TestRouterMessageCreate(t *testing.T) {
	engine := &recordingEngine{}
	guilds := guildMap{}
	r := NewRouter(context.Background(), engine, func(id string) bool { return id == "c1" }, guilds)

	r.onMessageCreate(sessionAs("bot"), &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", ChannelID: "c1", GuildID: "g1", Author: &discordgo.User{ID: "u1"}, Content: "hola",
	}})
	r.onMessageCreate(sessionAs("bot"), &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m2", ChannelID: "c2", GuildID: "g1", Author: &discordgo.User{ID: "u1"}, Content: "hola",
	}})
	r.onMessageCreate(sessionAs("bot"), &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m3", ChannelID: "c1", GuildID: "g1", Author: &discordgo.User{ID: "bot"}, Content: "aviso",
	}})

	require.Len(t, engine.events, 1)
	assert.Equal(t, "m1", engine.events[0].(moderation.NewMessage).MessageID)
	assert.Equal(t, guildMap{"c1": "g1"}, guilds)
}

func TestRouterDeletes(t *testing.T) {
	engine := &recordingEngine{}
	r := NewRouter(context.Background(), engine, nil, nil)

	r.onMessageDelete(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1", ChannelID: "c1"}})
	r.onMessageDeleteBulk(nil, &discordgo.MessageDeleteBulk{ChannelID: "c1", Messages: []string{"m2", "m3"}})

	assert.Equal(t, []moderation.Event{
		moderation.MessageDeleted{ChatID: "c1", MessageID: "m1"},
		moderation.MessageDeleted{ChatID: "c1", MessageID: "m2"},
		moderation.MessageDeleted{ChatID: "c1", MessageID: "m3"},
	}, engine.events)
}

func TestRouterSurvivesSubmitErrors(t *testing.T) {
	engine := &recordingEngine{err: errors.New("engine stopped")}
	r := NewRouter(context.Background(), engine, nil, nil)

	assert.NotPanics(t, func() {
		r.onMessageDelete(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1", ChannelID: "c1"}})
	})
	assert.Empty(t, engine.events)
}
