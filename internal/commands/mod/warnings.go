package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createWarningsCommand creates the /avisos command
func createWarningsCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"avisos",
		"Muestra los avisos por enlaces no permitidos en este canal",
		"mod",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()

				target := ctx.GetUserOption("usuario")
				if target == nil {
					target = ctx.User()
				}
				if target == nil {
					ctx.ReplyEphemeral("❌ No se pudo determinar el usuario.")
					return
				}

				count := deps.Engine.WarningCount(ctx.ChannelID(), target.ID)
				threshold := deps.Engine.Options().WarningThreshold
				ctx.ReplyEphemeralEmbed(warningsEmbed(target.Username, count, threshold, deps.now()))
			}()
			return nil
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a consultar (opcional)",
			Required:    false,
		},
	)
}

// warningsEmbed renders a member's warning count against the kick threshold
func warningsEmbed(username string, count, threshold int, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔖 - Avisos de %s", username),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
	}

	switch {
	case count == 0:
		embed.Color = 0x00FF00
		embed.Description = "No tiene avisos en este canal."
	case count >= threshold-1:
		embed.Color = 0xFF0000
		embed.Description = fmt.Sprintf("⚠️ Un aviso más y será expulsado (límite: %d).", threshold)
	default:
		embed.Color = 0xFFA500
		embed.Description = fmt.Sprintf("Le quedan %d avisos antes de ser expulsado.", threshold-count)
	}

	embed.Description += fmt.Sprintf("\n\n> 💫 - **Cantidad de avisos:** %d/%d\n> 🕒 - **Fecha de consulta:** <t:%d>", count, threshold, now.Unix())
	return embed
}
