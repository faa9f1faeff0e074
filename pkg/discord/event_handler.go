package discord

import (
	"fmt"
	"sync"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler manages event loading and registration
type EventHandler struct {
	client *ExtendedClient
	events []interface{}
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client: client,
		events: make([]interface{}, 0),
	}
}

// LoadEvents reports the handlers attached before the session opens
func (eh *EventHandler) LoadEvents() error {
	logger.System(fmt.Sprintf("Eventos registrados: %d", eh.Count()), "EventHandler")
	return nil
}

// Count returns the number of registered handlers
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.events)
}

// RegisterEvent adds an event handler to the Discord session
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, handler)
	eh.mu.Unlock()
	logger.Debug("Evento registrado", "EventHandler")
}

// Event handler types for common Discord events

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// MessageCreateHandler is called when a message is created
type MessageCreateHandler func(s *discordgo.Session, m *discordgo.MessageCreate)

// MessageDeleteHandler is called when a message is deleted
type MessageDeleteHandler func(s *discordgo.Session, m *discordgo.MessageDelete)

// MessageDeleteBulkHandler is called when several messages are deleted at once
type MessageDeleteBulkHandler func(s *discordgo.Session, m *discordgo.MessageDeleteBulk)

// Helper functions to register common event types. discordgo dispatches on
// the handler's exact func type, so named handler types are converted back.

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.Ready))(handler))
	logger.Debug("Evento 'Ready' registrado", "EventHandler")
}

// OnMessageCreate registers a message create event handler
func (eh *EventHandler) OnMessageCreate(handler MessageCreateHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.MessageCreate))(handler))
	logger.Debug("Evento 'MessageCreate' registrado", "EventHandler")
}

// OnMessageDelete registers a message delete event handler
func (eh *EventHandler) OnMessageDelete(handler MessageDeleteHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.MessageDelete))(handler))
	logger.Debug("Evento 'MessageDelete' registrado", "EventHandler")
}

// OnMessageDeleteBulk registers a bulk message delete event handler
func (eh *EventHandler) OnMessageDeleteBulk(handler MessageDeleteBulkHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.MessageDeleteBulk))(handler))
	logger.Debug("Evento 'MessageDeleteBulk' registrado", "EventHandler")
}
