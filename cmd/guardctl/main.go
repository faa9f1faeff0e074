// Package main provides an operator utility for a running ChannelGuard.
//
// Usage:
//
//	go run ./cmd/guardctl [options]
//
// Options:
//
//	-status         Print the moderation state reported over MQTT
//	-tick           Ask the bot to check every tracked link now
//	-watch          Print moderation actions as the bot publishes them
//	-list           List the slash commands registered with Discord
//	-clean          Remove all slash commands
//	-sync           Replace the registered slash commands with the current set
//	-guild <id>     Target a guild instead of the global commands
//	-timeout <dur>  How long to wait for MQTT answers (default 10s)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/commands"
	"github.com/PancyStudios/ChannelGuardGo/pkg/config"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/mqtt"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

func main() {
	statusCmd := flag.Bool("status", false, "Print the moderation state")
	tickCmd := flag.Bool("tick", false, "Check every tracked link now")
	watchCmd := flag.Bool("watch", false, "Print moderation actions as they happen")
	listCmd := flag.Bool("list", false, "List all registered commands")
	cleanCmd := flag.Bool("clean", false, "Remove all commands")
	syncCmd := flag.Bool("sync", false, "Sync commands (replace the registered set)")
	guildID := flag.String("guild", "", "Target a specific guild (leave empty for global)")
	timeout := flag.Duration("timeout", 10*time.Second, "MQTT request timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, "")
	defer log.Close()

	switch {
	case *statusCmd:
		os.Exit(request("status", *timeout))
	case *tickCmd:
		os.Exit(request("tick", *timeout))
	case *watchCmd:
		os.Exit(watch(*timeout))
	case *listCmd, *cleanCmd, *syncCmd:
	default:
		flag.Usage()
		os.Exit(2)
	}

	session, appID, err := connectDiscord(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error conectando con Discord: %v", err), "GuardCtl")
		os.Exit(1)
	}

	switch {
	case *listCmd:
		err = listCommands(session, appID, *guildID)
	case *cleanCmd:
		err = overwriteCommands(session, appID, *guildID, nil)
	case *syncCmd:
		err = overwriteCommands(session, appID, *guildID, currentCommands(session))
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Error: %v", err), "GuardCtl")
		os.Exit(1)
	}
	logger.Success("Operación completada exitosamente", "GuardCtl")
}

// connectBroker opens an MQTT connection and waits until it is usable
func connectBroker(deadline time.Time) (*mqtt.MqttCommunicator, bool) {
	cfg := config.Get()
	client := mqtt.NewMqttCommunicator(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword,
		fmt.Sprintf("guardctl_%d", os.Getpid()))

	for !client.IsConnected() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if !client.IsConnected() {
		logger.Error("No se pudo conectar al broker MQTT", "GuardCtl")
		client.Destroy()
		return nil, false
	}
	return client, true
}

// request sends an MQTT control request to the running bot and prints the
// answer as JSON. It returns the process exit code.
func request(name string, timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	client, ok := connectBroker(deadline)
	if !ok {
		return 1
	}
	defer client.Destroy()

	data, err := client.Request(name, map[string]interface{}{}, time.Until(deadline))
	if err != nil {
		logger.Error(fmt.Sprintf("La petición '%s' falló: %v", name, err), "GuardCtl")
		return 1
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		logger.Error(fmt.Sprintf("Respuesta ilegible: %v", err), "GuardCtl")
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// watch prints every published action until interrupted
func watch(timeout time.Duration) int {
	client, ok := connectBroker(time.Now().Add(timeout))
	if !ok {
		return 1
	}
	defer client.Destroy()

	topic := mqtt.ActionTopic("#")
	err := client.Subscribe(topic, func(topic string, payload []byte) {
		fmt.Printf("%s %s\n", topic, payload)
	})
	if err != nil {
		logger.Error(fmt.Sprintf("Error suscribiendo a %s: %v", topic, err), "GuardCtl")
		return 1
	}
	logger.Info("👀 Escuchando acciones, Ctrl+C para salir", "GuardCtl")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	if err := client.Unsubscribe(topic); err != nil {
		logger.Warn(fmt.Sprintf("Error cancelando la suscripción: %v", err), "GuardCtl")
	}
	return 0
}

// connectDiscord creates a REST-only session and resolves the application ID
func connectDiscord(token string) (*discordgo.Session, string, error) {
	client, err := discord.NewClient(token)
	if err != nil {
		return nil, "", err
	}
	me, err := client.Session.User("@me")
	if err != nil {
		return nil, "", fmt.Errorf("resolve application: %w", err)
	}
	return client.Session, me.ID, nil
}

// currentCommands returns the slash commands this build publishes
func currentCommands(session *discordgo.Session) []*discordgo.ApplicationCommand {
	client := &discord.ExtendedClient{Session: session, Commands: discord.NewCommandCollection()}
	client.CommandHandler = discord.NewCommandHandler(client)
	commands.RegisterAll(client, commands.Deps{})
	return client.CommandHandler.SlashCommands()
}

// listCommands lists all commands registered with Discord
func listCommands(session *discordgo.Session, appID, guildID string) error {
	logger.Info("📋 Listando comandos registrados...", "GuardCtl")

	cmds, err := session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", "GuardCtl")
		return nil
	}

	logger.Info(fmt.Sprintf("Comandos encontrados: %d", len(cmds)), "GuardCtl")
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)", i+1, cmd.Name, cmd.Description, cmd.ID), "GuardCtl")
	}
	return nil
}

// overwriteCommands replaces the registered commands; an empty set removes all
func overwriteCommands(session *discordgo.Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) error {
	if cmds == nil {
		cmds = []*discordgo.ApplicationCommand{}
	}
	logger.Info(fmt.Sprintf("🔄 Publicando %d comandos...", len(cmds)), "GuardCtl")

	_, err := session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	return err
}
