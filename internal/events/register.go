package events

import (
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, router *Router) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup) and gateway state
	RegisterReadyEvent(client)

	// Message events feeding the moderation engine
	RegisterMessageEvents(client, router)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
