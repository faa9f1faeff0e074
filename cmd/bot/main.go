// Package main is the entry point for ChannelGuard.
// It initializes all systems, starts the moderation engine and connects
// the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/commands"
	"github.com/PancyStudios/ChannelGuardGo/internal/commands/mod"
	"github.com/PancyStudios/ChannelGuardGo/internal/commands/utils"
	"github.com/PancyStudios/ChannelGuardGo/internal/events"
	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/config"
	"github.com/PancyStudios/ChannelGuardGo/pkg/database"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/mqtt"
	"github.com/PancyStudios/ChannelGuardGo/pkg/web"
)

// auditCapacity is how many actions the audit log keeps in memory
const auditCapacity = 500

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando ChannelGuard %s, compilado %s (%s)...", config.Version, config.BuildTime, cfg.Environment), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")
	for _, problem := range config.Problems() {
		logger.Warn(problem, "Config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		cancel()
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
			}
		}
	})

	// Initialize database
	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		// Continue without database, it will attempt to reconnect
	}
	defer func() {
		if db != nil {
			if err := db.Disconnect(); err != nil {
				logger.Error(fmt.Sprintf("Error desconectando la base de datos: %v", err), "Main")
			}
		}
	}()
	audit := database.NewAuditLog(db, auditCapacity)

	// Initialize MQTT
	mqttClientID := "channelguard"
	if !cfg.IsProd() {
		mqttClientID = "channelguard_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	executor := discord.NewExecutor(discordClient.Session, cfg.AllowedDomains)
	stream := web.NewActionStream()

	// Moderation engine. Metrics sample the engine at scrape time.
	var engine *moderation.Engine
	metrics := web.NewMetrics(func() moderation.Stats { return engine.Stats() })

	policy := moderation.NewDomainPolicy(cfg.AllowedDomains)
	engine = moderation.NewEngine(
		moderation.Options{
			LinkTTL:              cfg.LinkTTL,
			WarningThreshold:     cfg.WarningThreshold,
			ValidatorTimeout:     cfg.ValidatorTimeout,
			ValidatorConcurrency: cfg.ValidatorConcurrency,
			ReportChannelID:      cfg.ReportChannelID,
		},
		policy,
		moderation.NewHTTPValidator(nil, cfg.BrokenStatusCodes...),
		moderation.MultiSink{executor, mqtt.NewActionPublisher(mqttClient), audit, stream, metrics},
		nil,
	)
	logger.Info(fmt.Sprintf("Dominios permitidos: %s", strings.Join(policy.Domains(), ", ")), "Main")

	engineDone := make(chan error, 1)
	go func() {
		defer errors.RecoverMiddleware()()
		engineDone <- engine.Run(ctx)
	}()

	scheduler := moderation.NewScheduler(cfg.TickInterval, engine)
	scheduler.Start(ctx)
	defer scheduler.Stop()
	logger.Info(fmt.Sprintf("Revisión de enlaces cada %s, caducidad %s", scheduler.Interval(), engine.Options().LinkTTL), "Main")

	// Remote control over MQTT
	mqtt.RegisterControl(mqttClient, mqtt.ControlHandlers{
		Status: func() interface{} { return engine.Stats() },
		Tick: func() error {
			tctx, tcancel := context.WithTimeout(ctx, 5*time.Second)
			defer tcancel()
			return scheduler.TriggerNow(tctx)
		},
	})

	// Initialize web server
	webServer := web.Init(cfg.LogsWebhook, cfg.WebAllowedHost)
	web.SetupAPIRoutes(webServer, &web.API{
		State:        engine,
		Audit:        audit,
		Bot:          discordClient,
		Database:     db,
		TriggerCheck: scheduler.TriggerNow,
		Stream:       stream,
		Metrics:      metrics,
		StartedAt:    time.Now(),
	})
	webServer.StartAsync(cfg.Port)

	// Register commands using the commands package
	commands.RegisterAll(discordClient, commands.Deps{
		Mod: mod.Deps{
			Engine:       engine,
			TriggerCheck: scheduler.TriggerNow,
		},
		Utils: utils.Deps{
			Stats:    engine.Stats,
			Database: db,
			Broker:   mqttClient,
		},
	})

	// Register events using the events package
	router := events.NewRouter(ctx, engine, cfg.Watches, executor)
	events.RegisterAll(discordClient, router)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("ChannelGuard iniciado correctamente!", "Main")

	// Wait for interrupt signal or an engine failure
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case err := <-engineDone:
		if err != nil {
			logger.Critical(fmt.Sprintf("El motor de moderación se detuvo: %v", err), "Main")
		}
	}

	logger.System("Apagando ChannelGuard...", "Main")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	stream.Close()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(fmt.Sprintf("Error deteniendo el servidor web: %v", err), "Main")
	}
	scheduler.Stop()
	cancel()
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
