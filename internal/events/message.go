// Package events translates Discord gateway events into moderation events
package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// GuildMemory learns which guild owns a channel
type GuildMemory interface {
	RememberGuild(channelID, guildID string)
}

// Router forwards gateway events from watched channels to the engine
type Router struct {
	ctx     context.Context
	engine  moderation.Submitter
	watches func(channelID string) bool
	guilds  GuildMemory
}

// NewRouter creates a router. watches may be nil to moderate every channel
// and guilds may be nil.
func NewRouter(ctx context.Context, engine moderation.Submitter, watches func(string) bool, guilds GuildMemory) *Router {
	if watches == nil {
		watches = func(string) bool { return true }
	}
	return &Router{ctx: ctx, engine: engine, watches: watches, guilds: guilds}
}

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *discord.ExtendedClient, r *Router) {
	client.EventHandler.OnMessageCreate(r.onMessageCreate)
	client.EventHandler.OnMessageDelete(r.onMessageDelete)
	client.EventHandler.OnMessageDeleteBulk(r.onMessageDeleteBulk)
}

// TranslateMessage converts a gateway message into a moderation event.
// Messages from bots, including this one, and system messages other than
// member joins are ignored.
func TranslateMessage(m *discordgo.Message, selfID string) (moderation.Event, bool) {
	if m == nil {
		return nil, false
	}

	switch m.Type {
	case discordgo.MessageTypeGuildMemberJoin:
		return moderation.ServiceMessage{
			ChatID:    m.ChannelID,
			MessageID: m.ID,
			Kind:      moderation.ServiceJoin,
		}, true
	case discordgo.MessageTypeDefault, discordgo.MessageTypeReply:
	default:
		return nil, false
	}

	if m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return nil, false
	}

	return moderation.NewMessage{
		ChatID:    m.ChannelID,
		UserID:    m.Author.ID,
		MessageID: m.ID,
		Text:      m.Content,
		Links:     moderation.ExtractLinks(m.Content),
		SentAt:    m.Timestamp,
	}, true
}

func (r *Router) submit(ev moderation.Event) {
	if err := r.engine.Submit(r.ctx, ev); err != nil {
		logger.Error(fmt.Sprintf("No se pudo entregar el evento %T: %v", ev, err), "Message")
	}
}

// onMessageCreate is called when a new message is created
func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer errors.RecoverMiddleware()()

	if !r.watches(m.ChannelID) {
		return
	}
	if r.guilds != nil {
		r.guilds.RememberGuild(m.ChannelID, m.GuildID)
	}

	selfID := ""
	if s != nil && s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	if ev, ok := TranslateMessage(m.Message, selfID); ok {
		r.submit(ev)
	}
}

// onMessageDelete is called when a message is deleted
func (r *Router) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	defer errors.RecoverMiddleware()()

	if m.Message == nil || !r.watches(m.ChannelID) {
		return
	}
	logger.Debug(fmt.Sprintf("🗑️ Mensaje eliminado: ID %s en canal %s", m.ID, m.ChannelID), "Message")
	r.submit(moderation.MessageDeleted{ChatID: m.ChannelID, MessageID: m.ID})
}

// onMessageDeleteBulk is called when a moderator purges several messages
func (r *Router) onMessageDeleteBulk(s *discordgo.Session, m *discordgo.MessageDeleteBulk) {
	defer errors.RecoverMiddleware()()

	if !r.watches(m.ChannelID) {
		return
	}
	for _, id := range m.Messages {
		r.submit(moderation.MessageDeleted{ChatID: m.ChannelID, MessageID: id})
	}
}
