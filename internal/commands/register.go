// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (mod, utils).
package commands

import (
	"github.com/PancyStudios/ChannelGuardGo/internal/commands/mod"
	"github.com/PancyStudios/ChannelGuardGo/internal/commands/utils"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
)

// Deps groups the dependencies of every command category
type Deps struct {
	Mod   mod.Deps
	Utils utils.Deps
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	// Moderation commands (/links lista, /links revisar, /avisos)
	mod.RegisterModCommands(client, deps.Mod)

	// Utility commands (/utils status, /utils stats, /utils help)
	utils.RegisterUtilsCommands(client, deps.Utils)
}
