// Package mod provides the moderation commands: /links lista, /links revisar
// and /avisos. Each command is in its own file.
package mod

import (
	"context"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

// Engine is the moderation state the commands read
type Engine interface {
	Links(chatID string) []models.TrackedLink
	WarningCount(chatID, userID string) int
	Options() moderation.Options
}

// Deps carries what the commands need from the rest of the bot
type Deps struct {
	Engine Engine
	// TriggerCheck queues an immediate revalidation of the tracked links
	TriggerCheck func(ctx context.Context) error
	Now          func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterModCommands registers /links as a command group and /avisos
func RegisterModCommands(client *discord.ExtendedClient, deps Deps) {
	listCmd := createListCommand(deps)
	checkCmd := createCheckCommand(deps)

	linksGroup := client.CommandHandler.BuildCommandGroup(
		"links",
		"Enlaces vigilados en este canal",
		listCmd,
		checkCmd,
	)
	client.CommandHandler.AddGlobalCommand(linksGroup)

	// RegisterCommand already queues /avisos for publication
	client.CommandHandler.RegisterCommand(createWarningsCommand(deps))
}
