package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
)

// maxMessageLength is Discord's limit for message content
const maxMessageLength = 2000

// guildCacheSize bounds the channel to guild lookups kept in memory
const guildCacheSize = 4096

// API is the part of discordgo.Session used to carry out actions
type API interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Executor applies moderation actions through the Discord API
type Executor struct {
	api            API
	allowedDomains []string
	guilds         *lru.Cache[string, string] // channel id -> guild id
}

// NewExecutor creates an executor. allowedDomains is only used to word the
// warning message.
func NewExecutor(api API, allowedDomains []string) *Executor {
	guilds, _ := lru.New[string, string](guildCacheSize)
	return &Executor{
		api:            api,
		allowedDomains: allowedDomains,
		guilds:         guilds,
	}
}

// RememberGuild records the guild of a channel, saving a lookup on kick
func (e *Executor) RememberGuild(channelID, guildID string) {
	if channelID == "" || guildID == "" {
		return
	}
	e.guilds.Add(channelID, guildID)
}

// guildOf resolves the guild that owns a channel
func (e *Executor) guildOf(ctx context.Context, channelID string) (string, error) {
	if guildID, ok := e.guilds.Get(channelID); ok {
		return guildID, nil
	}

	ch, err := e.api.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve guild of channel %s: %w", channelID, err)
	}
	if ch.GuildID == "" {
		return "", fmt.Errorf("channel %s is not part of a guild", channelID)
	}
	e.RememberGuild(channelID, ch.GuildID)
	return ch.GuildID, nil
}

// Apply implements moderation.ActionSink
func (e *Executor) Apply(ctx context.Context, action moderation.Action) error {
	switch a := action.(type) {
	case moderation.DeleteMessage:
		return e.deleteMessage(ctx, a)
	case moderation.WarnUser:
		return e.warnUser(ctx, a)
	case moderation.KickUser:
		return e.kickUser(ctx, a)
	case moderation.PostReport:
		return e.postReport(ctx, a)
	default:
		return fmt.Errorf("unsupported action %T", action)
	}
}

func (e *Executor) deleteMessage(ctx context.Context, a moderation.DeleteMessage) error {
	err := e.api.ChannelMessageDelete(a.ChatID, a.MessageID, discordgo.WithContext(ctx))
	if isNotFound(err) {
		logger.Debug(fmt.Sprintf("El mensaje %s ya no existe", a.MessageID), "Executor")
		return nil
	}
	return err
}

func (e *Executor) warnUser(ctx context.Context, a moderation.WarnUser) error {
	_, err := e.api.ChannelMessageSendComplex(a.ChatID, &discordgo.MessageSend{
		Content: WarningText(a.UserID, a.Remaining, e.allowedDomains),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{a.UserID},
		},
	}, discordgo.WithContext(ctx))
	return err
}

func (e *Executor) kickUser(ctx context.Context, a moderation.KickUser) error {
	guildID, err := e.guildOf(ctx, a.ChatID)
	if err != nil {
		return err
	}

	err = e.api.GuildMemberDeleteWithReason(guildID, a.UserID, "Límite de avisos por enlaces no permitidos", discordgo.WithContext(ctx))
	if isNotFound(err) {
		logger.Debug(fmt.Sprintf("El usuario %s ya no está en el servidor", a.UserID), "Executor")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Warn(fmt.Sprintf("Usuario %s expulsado de %s", a.UserID, guildID), "Executor")
	return nil
}

func (e *Executor) postReport(ctx context.Context, a moderation.PostReport) error {
	for _, chunk := range SplitMessage(a.Text, maxMessageLength) {
		_, err := e.api.ChannelMessageSendComplex(a.ChatID, &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
	}
	return nil
}

// WarningText words the notice sent to a member who posted a forbidden link
func WarningText(userID string, remaining int, allowedDomains []string) string {
	domains := "los dominios permitidos"
	if len(allowedDomains) > 0 {
		domains = "**" + strings.Join(allowedDomains, "**, **") + "**"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ <@%s>, en este canal solo se permiten enlaces de %s.\n", userID, domains)
	switch remaining {
	case 0:
		b.WriteString("🚫 Has alcanzado el límite de avisos.")
	case 1:
		b.WriteString("Te queda **1** aviso antes de ser expulsado.")
	default:
		fmt.Fprintf(&b, "Te quedan **%d** avisos antes de ser expulsado.", remaining)
	}
	return b.String()
}

// SplitMessage cuts text into chunks of at most limit bytes, preferring
// line breaks as cut points
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
				current.Reset()
			}
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len() > 0 && current.Len()+len(line) > limit {
			chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
