package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

type kick struct {
	guildID, userID, reason string
}

type fakeAPI struct {
	mu           sync.Mutex
	deleted      []string
	sent         []sentMessage
	kicks        []kick
	channelCalls int
	channels     map[string]*discordgo.Channel
	deleteErr    error
	kickErr      error
}

func (f *fakeAPI) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeAPI) GuildMemberDeleteWithReason(guildID, userID, reason string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kickErr != nil {
		return f.kickErr
	}
	f.kicks = append(f.kicks, kick{guildID, userID, reason})
	return nil
}

func (f *fakeAPI) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls++
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func notFound() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func TestExecutorDeleteMessage(t *testing.T) {
	api := &fakeAPI{}
	e := NewExecutor(api, nil)

	require.NoError(t, e.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c1", MessageID: "m1"}))
	assert.Equal(t, []string{"c1/m1"}, api.deleted)

	api.deleteErr = notFound()
	assert.NoError(t, e.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c1", MessageID: "m2"}))

	api.deleteErr = errors.New("missing permissions")
	assert.Error(t, e.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c1", MessageID: "m3"}))
}

func TestExecutorWarnMentionsOnlyTheUser(t *testing.T) {
	api := &fakeAPI{}
	e := NewExecutor(api, []string{"blndev.com"})

	require.NoError(t, e.Apply(context.Background(), moderation.WarnUser{ChatID: "c1", UserID: "u1", Remaining: 3}))

	require.Len(t, api.sent, 1)
	msg := api.sent[0].data
	assert.Contains(t, msg.Content, "<@u1>")
	assert.Contains(t, msg.Content, "**blndev.com**")
	assert.Contains(t, msg.Content, "**3** avisos")
	assert.Equal(t, []string{"u1"}, msg.AllowedMentions.Users)
}

func TestExecutorKickResolvesGuildOnce(t *testing.T) {
	api := &fakeAPI{channels: map[string]*discordgo.Channel{"c1": {ID: "c1", GuildID: "g1"}}}
	e := NewExecutor(api, nil)
	ctx := context.Background()

	require.NoError(t, e.Apply(ctx, moderation.KickUser{ChatID: "c1", UserID: "u1"}))
	require.NoError(t, e.Apply(ctx, moderation.KickUser{ChatID: "c1", UserID: "u2"}))

	require.Len(t, api.kicks, 2)
	assert.Equal(t, "g1", api.kicks[0].guildID)
	assert.NotEmpty(t, api.kicks[0].reason)
	assert.Equal(t, 1, api.channelCalls)
}

func TestExecutorKickUsesRememberedGuild(t *testing.T) {
	api := &fakeAPI{}
	e := NewExecutor(api, nil)
	e.RememberGuild("c9", "g9")

	require.NoError(t, e.Apply(context.Background(), moderation.KickUser{ChatID: "c9", UserID: "u1"}))
	assert.Equal(t, 0, api.channelCalls)
	assert.Equal(t, "g9", api.kicks[0].guildID)
}

func TestExecutorKickErrors(t *testing.T) {
	api := &fakeAPI{channels: map[string]*discordgo.Channel{"dm": {ID: "dm"}}}
	e := NewExecutor(api, nil)
	ctx := context.Background()

	assert.Error(t, e.Apply(ctx, moderation.KickUser{ChatID: "unknown", UserID: "u1"}))
	assert.Error(t, e.Apply(ctx, moderation.KickUser{ChatID: "dm", UserID: "u1"}))

	e.RememberGuild("c1", "g1")
	api.kickErr = notFound()
	assert.NoError(t, e.Apply(ctx, moderation.KickUser{ChatID: "c1", UserID: "gone"}))
}

func TestExecutorReportIsSplit(t *testing.T) {
	api := &fakeAPI{}
	e := NewExecutor(api, nil)

	line := "> https://blndev.com/" + strings.Repeat("a", 80) + "\n"
	text := strings.Repeat(line, 60)

	require.NoError(t, e.Apply(context.Background(), moderation.PostReport{ChatID: "c1", Text: text}))
	require.Greater(t, len(api.sent), 1)
	for _, s := range api.sent {
		assert.LessOrEqual(t, len(s.data.Content), maxMessageLength)
		assert.Empty(t, s.data.AllowedMentions.Users)
	}
}

func TestWarningText(t *testing.T) {
	assert.Contains(t, WarningText("u", 0, nil), "límite de avisos")
	assert.Contains(t, WarningText("u", 1, nil), "**1** aviso antes")
	assert.Contains(t, WarningText("u", 4, []string{"a.com", "b.com"}), "**a.com**, **b.com**")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"corto"}, SplitMessage("corto", 10))

	chunks := SplitMessage("uno\ndos\ntres\ncuatro", 9)
	assert.Equal(t, []string{"uno\ndos", "tres", "cuatro"}, chunks)

	long := strings.Repeat("é", 10) // 20 bytes
	for _, c := range SplitMessage(long, 7) {
		assert.LessOrEqual(t, len(c), 7)
		assert.True(t, strings.HasPrefix(c, "é"))
	}
}
