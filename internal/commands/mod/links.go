package mod

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// maxListedLinks keeps the embed under Discord's description limit
const maxListedLinks = 25

// createListCommand creates the /links lista subcommand
func createListCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"lista",
		"Muestra los enlaces vigilados en este canal",
		"mod",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()
				links := deps.Engine.Links(ctx.ChannelID())
				ctx.ReplyEphemeralEmbed(linksEmbed(links, deps.Engine.Options().LinkTTL, deps.now()))
			}()
			return nil
		},
	)
}

// createCheckCommand creates the /links revisar subcommand
func createCheckCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"revisar",
		"[STAFF] Revisa ahora todos los enlaces vigilados",
		"mod",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()

				if deps.TriggerCheck == nil {
					ctx.ReplyEphemeral("❌ La revisión manual no está disponible.")
					return
				}

				tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := deps.TriggerCheck(tctx); err != nil {
					logger.Error(fmt.Sprintf("No se pudo encolar la revisión: %v", err), "CMD-Links")
					ctx.ReplyEphemeral("❌ No se pudo iniciar la revisión, inténtalo más tarde.")
					return
				}

				logger.Info(fmt.Sprintf("Revisión manual solicitada por %s", ctx.User().ID), "CMD-Links")
				ctx.ReplyEphemeral("🔎 Revisión de enlaces en marcha. Los enlaces caídos se publicarán en el canal de reportes.")
			}()
			return nil
		},
	).WithUserPermissions(discordgo.PermissionManageMessages)
}

// linksEmbed renders the tracked links of a channel, newest first
func linksEmbed(links []models.TrackedLink, ttl time.Duration, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🔗 - Enlaces vigilados",
		Color: 0x3498db,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
		Timestamp: now.Format(time.RFC3339),
	}

	if len(links) == 0 {
		embed.Color = 0x00FF00
		embed.Description = "No hay enlaces vigilados en este canal."
		return embed
	}

	sorted := slices.Clone(links)
	slices.SortStableFunc(sorted, func(a, b models.TrackedLink) int {
		return b.PostedAt.Compare(a.PostedAt)
	})

	var b strings.Builder
	for i, link := range sorted {
		if i == maxListedLinks {
			fmt.Fprintf(&b, "\n… y %d más", len(sorted)-maxListedLinks)
			break
		}
		fmt.Fprintf(&b, "%s %s\n> <@%s> · caduca <t:%d:R>\n",
			link.LastStatus.Emoji(), link.URL, link.PosterID, link.PostedAt.Add(ttl).Unix())
	}
	fmt.Fprintf(&b, "\n> 💫 - **Cantidad de enlaces:** %d", len(sorted))

	embed.Description = b.String()
	return embed
}
