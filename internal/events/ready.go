package events

import (
	"fmt"

	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// statusText is shown as the bot's activity
const statusText = "🔗 Vigilando enlaces"

// RegisterReadyEvent registers the ready and connection event handlers
func RegisterReadyEvent(client *discord.ExtendedClient) {
	client.EventHandler.OnReady(onReady)
	client.EventHandler.RegisterEvent(onDisconnect)
	client.EventHandler.RegisterEvent(onResumed)
}

// onReady is called when the bot successfully connects to Discord
func onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Success(fmt.Sprintf("✅ Bot conectado: %s", r.User.Username), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	if err := s.UpdateWatchStatus(0, statusText); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
		return
	}

	logger.Debug("Estado del bot establecido correctamente", "Ready")
}

// onDisconnect is called when the gateway connection drops
func onDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	logger.Warn("🔌 Conexión con Discord perdida, discordgo intentará reconectar", "Gateway")
}

// onResumed is called when a dropped session is resumed
func onResumed(s *discordgo.Session, r *discordgo.Resumed) {
	logger.Success("🔄 Sesión con Discord reanudada", "Gateway")
}
