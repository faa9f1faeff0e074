package discord

import (
	"fmt"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client        *ExtendedClient
	slashCommands []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:        client,
		slashCommands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// LoadCommands checks the registered commands before the session opens
func (ch *CommandHandler) LoadCommands() error {
	logger.System("Iniciando carga de comandos...", "CommandHandler")

	if len(ch.slashCommands) == 0 {
		return fmt.Errorf("no hay comandos registrados")
	}

	logger.System(fmt.Sprintf("Carga finalizada: %d comandos (%d en la colección).",
		len(ch.slashCommands), ch.client.Commands.Size()), "CommandHandler")
	return nil
}

// RegisterCommand adds a command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)

	ch.slashCommands = append(ch.slashCommands, cmd.ToApplicationCommand())

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup creates a command group with subcommands
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	for _, cmd := range subcommands {
		fullName := name + "." + cmd.Name
		ch.client.Commands.Set(fullName, cmd)

		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
		options = append(options, opt)
	}

	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// RegisterCommands publishes the slash commands, replacing the previous
// set. With a dev guild they go to that guild only, where changes show up
// immediately instead of waiting for global propagation.
func (ch *CommandHandler) RegisterCommands(devGuildID string) {
	appID := ch.client.Session.State.User.ID

	scope := "globales"
	if devGuildID != "" {
		scope = "del servidor " + devGuildID
	}

	logger.Info("🔄 Registrando comandos "+scope+"...", "CommandHandler")
	if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, devGuildID, ch.slashCommands); err != nil {
		logger.Error("Error registrando comandos "+scope+": "+err.Error(), "CommandHandler")
		return
	}
	logger.Success("✅ Comandos "+scope+" registrados.", "CommandHandler")
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// SlashCommands returns the global commands that will be published
func (ch *CommandHandler) SlashCommands() []*discordgo.ApplicationCommand {
	return ch.slashCommands
}
