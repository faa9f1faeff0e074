package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/config"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/gin-gonic/gin"
)

// ModerationState is the read side of the moderation engine
type ModerationState interface {
	Stats() moderation.Stats
	Links(chatID string) []models.TrackedLink
	Warnings(chatID string) []models.WarningRecord
}

// AuditReader lists recent moderation actions
type AuditReader interface {
	Recent(ctx context.Context, chatID string, limit int) []models.AuditEntry
}

// BotStatus reports the Discord connection
type BotStatus interface {
	IsReady() bool
	GuildCount() int
}

// DatabaseStatus reports the audit database connection
type DatabaseStatus interface {
	GetStatus() (string, bool)
	QueueLen() int
}

// API holds what the routes need. Nil fields are reported as unavailable.
type API struct {
	State    ModerationState
	Audit    AuditReader
	Bot      BotStatus
	Database DatabaseStatus
	// TriggerCheck queues an immediate link check
	TriggerCheck func(ctx context.Context) error
	// Stream serves the live action feed
	Stream *ActionStream
	// Metrics is exposed on /metrics when set
	Metrics   *Metrics
	StartedAt time.Time
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, a *API) {
	s.GET("/", a.indexHandler)
	if a.Metrics != nil {
		s.GET("/metrics", a.Metrics.Handler())
	}

	api := s.Group("/api")
	{
		api.GET("/health", a.healthHandler)
		api.GET("/status", a.statusHandler)
		api.GET("/links", a.linksHandler)
		api.GET("/warnings", a.warningsHandler)
		api.GET("/audit", a.auditHandler)
		api.POST("/check", a.checkHandler)
		api.GET("/stream", a.streamHandler)
	}
}

func (a *API) indexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "ChannelGuard",
		"version": config.Version,
	})
}

// healthHandler returns a simple health check response
func (a *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "ChannelGuard is running",
	})
}

// statusHandler returns the bot, database and moderation status
func (a *API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline, pending := "🔴 | Desconectado", false, 0
	if a.Database != nil {
		dbStatus, dbOnline = a.Database.GetStatus()
		pending = a.Database.QueueLen()
	}

	botOnline, guilds := false, 0
	if a.Bot != nil {
		botOnline, guilds = a.Bot.IsReady(), a.Bot.GuildCount()
	}

	body := gin.H{
		"status":  "ok",
		"version": config.Version,
		"database": gin.H{
			"status":        dbStatus,
			"isOnline":      dbOnline,
			"pendingWrites": pending,
		},
		"bot": gin.H{
			"isOnline": botOnline,
			"guilds":   guilds,
		},
	}
	if !a.StartedAt.IsZero() {
		body["uptime"] = time.Since(a.StartedAt).Round(time.Second).String()
	}
	if a.State != nil {
		body["moderation"] = a.State.Stats()
	}

	c.JSON(http.StatusOK, body)
}

// linksHandler lists tracked links, optionally for one channel
func (a *API) linksHandler(c *gin.Context) {
	if a.State == nil {
		unavailable(c)
		return
	}
	links := a.State.Links(c.Query("channel"))
	c.JSON(http.StatusOK, gin.H{"count": len(links), "links": links})
}

// warningsHandler lists warning counters, optionally for one channel
func (a *API) warningsHandler(c *gin.Context) {
	if a.State == nil {
		unavailable(c)
		return
	}
	records := a.State.Warnings(c.Query("channel"))
	c.JSON(http.StatusOK, gin.H{"count": len(records), "warnings": records})
}

// auditHandler lists the latest moderation actions
func (a *API) auditHandler(c *gin.Context) {
	if a.Audit == nil {
		unavailable(c)
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": "El parámetro limit debe estar entre 1 y 500.",
				"status":  400,
			})
			return
		}
		limit = n
	}

	entries := a.Audit.Recent(c.Request.Context(), c.Query("channel"), limit)
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

// checkHandler queues an immediate link check
func (a *API) checkHandler(c *gin.Context) {
	if a.TriggerCheck == nil {
		unavailable(c)
		return
	}
	if err := a.TriggerCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Service Unavailable",
			"message": err.Error(),
			"status":  503,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// streamHandler upgrades to a websocket carrying every action taken
func (a *API) streamHandler(c *gin.Context) {
	if a.Stream == nil {
		unavailable(c)
		return
	}
	a.Stream.Handler(c)
}

func unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":   "Service Unavailable",
		"message": "El moderador no está disponible en este momento.",
		"status":  503,
	})
}
