package utils

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot y sus conexiones",
		"utils",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()
				latency := ctx.Client.Session.HeartbeatLatency().Milliseconds()
				ctx.Reply(statusText(deps, latency, ctx.Client.GuildCount()))
			}()
			return nil
		},
	)
}

// statusText summarizes the health of every connection the bot depends on
func statusText(deps Deps, latencyMs int64, guilds int) string {
	dbStatus := "⚪ Desactivada"
	if deps.Database != nil {
		dbStatus, _ = deps.Database.GetStatus()
	}

	broker := "⚪ Desactivado"
	if deps.Broker != nil {
		broker = "🔴 Desconectado"
		if deps.Broker.IsConnected() {
			broker = "🟢 Conectado"
		}
	}

	var b strings.Builder
	b.WriteString("📊 **Estado del Bot**\n")
	fmt.Fprintf(&b, "• Bot: 🟢 Online (%dms)\n", latencyMs)
	fmt.Fprintf(&b, "• Base de datos: %s\n", dbStatus)
	fmt.Fprintf(&b, "• MQTT: %s\n", broker)
	fmt.Fprintf(&b, "• Servidores: %d", guilds)

	if deps.Stats != nil {
		s := deps.Stats()
		lastTick := "nunca"
		if !s.LastTick.IsZero() {
			lastTick = fmt.Sprintf("<t:%d:R>", s.LastTick.Unix())
		}
		fmt.Fprintf(&b, "\n• Enlaces vigilados: %d\n• Última revisión: %s", s.TrackedLinks, lastTick)
	}
	return b.String()
}
