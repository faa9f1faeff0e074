package utils

import (
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
)

const helpText = "📖 **Ayuda de ChannelGuard**\n\n" +
	"En los canales vigilados solo se permiten enlaces de los dominios autorizados. " +
	"Cada enlace no permitido se elimina y suma un aviso; al llegar al límite el usuario es expulsado. " +
	"Los enlaces autorizados se revisan periódicamente y se retiran al caducar.\n\n" +
	"**Comandos disponibles:**\n" +
	"• `/links lista` - Enlaces vigilados en el canal\n" +
	"• `/links revisar` - Revisa los enlaces ahora (staff)\n" +
	"• `/avisos [usuario]` - Avisos en el canal\n" +
	"• `/utils status` - Estado del bot\n" +
	"• `/utils stats` - Estadísticas del bot"

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()
				ctx.ReplyEphemeral(helpText)
			}()
			return nil
		},
	)
}
