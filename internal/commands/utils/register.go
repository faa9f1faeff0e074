// Package utils provides the /utils command group: bot status, runtime
// statistics and help
package utils

import (
	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
)

// StatusReporter is implemented by the database connection
type StatusReporter interface {
	GetStatus() (string, bool)
}

// Broker is implemented by the MQTT client
type Broker interface {
	IsConnected() bool
}

// Deps carries the components whose state the commands report
type Deps struct {
	Stats    func() moderation.Stats
	Database StatusReporter
	Broker   Broker
}

// RegisterUtilsCommands registers all utility commands as /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient, deps Deps) {
	statusCmd := createStatusCommand(deps)
	helpCmd := createHelpCommand()
	statsCmd := createStatsCommand(deps)

	utilsGroup := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		statusCmd,
		helpCmd,
		statsCmd,
	)

	client.CommandHandler.AddGlobalCommand(utilsGroup)
}
