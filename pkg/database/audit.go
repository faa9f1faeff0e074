package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditCollection is the collection holding moderation history
const AuditCollection = "moderation_audit"

// auditStore is the write side of the database used by AuditLog
type auditStore interface {
	Insert(ctx context.Context, collectionName string, doc interface{}) error
}

// AuditLog records every action issued by the moderation engine. It keeps
// the newest entries in memory so they can be listed while the database is
// offline.
type AuditLog struct {
	store    auditStore
	db       *Database
	now      func() time.Time
	newID    func() string
	capacity int

	mu     sync.RWMutex
	recent []models.AuditEntry
}

// NewAuditLog creates an audit log backed by db. A nil db keeps the log in
// memory only.
func NewAuditLog(db *Database, capacity int) *AuditLog {
	a := newAuditLog(nil, capacity)
	if db != nil {
		a.store = db
		a.db = db
	}
	return a
}

func newAuditLog(store auditStore, capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = 200
	}
	return &AuditLog{
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
		capacity: capacity,
	}
}

// EntryFor converts an action into its audit record
func EntryFor(action moderation.Action) models.AuditEntry {
	entry := models.AuditEntry{Kind: action.Kind()}
	switch a := action.(type) {
	case moderation.DeleteMessage:
		entry.ChatID, entry.MessageID = a.ChatID, a.MessageID
	case moderation.WarnUser:
		entry.ChatID, entry.UserID, entry.Remaining = a.ChatID, a.UserID, a.Remaining
	case moderation.KickUser:
		entry.ChatID, entry.UserID = a.ChatID, a.UserID
	case moderation.PostReport:
		entry.ChatID, entry.Text = a.ChatID, a.Text
	}
	return entry
}

// Apply implements moderation.ActionSink
func (a *AuditLog) Apply(ctx context.Context, action moderation.Action) error {
	entry := EntryFor(action)
	entry.ID = a.newID()
	entry.CreatedAt = a.now()

	a.mu.Lock()
	a.recent = append(a.recent, entry)
	if over := len(a.recent) - a.capacity; over > 0 {
		a.recent = append([]models.AuditEntry(nil), a.recent[over:]...)
	}
	a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	if err := a.store.Insert(ctx, AuditCollection, entry); err != nil {
		logger.Warn(fmt.Sprintf("Auditoría: escritura encolada para reintento (%v)", err), "Audit")
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty chatID lists
// every channel. The database is preferred; the in-memory copy is used
// while it is offline.
func (a *AuditLog) Recent(ctx context.Context, chatID string, limit int) []models.AuditEntry {
	if limit <= 0 {
		limit = 50
	}

	if a.db != nil && a.db.Connected() {
		filter := bson.M{}
		if chatID != "" {
			filter["chatId"] = chatID
		}
		entries, err := FindRecent[models.AuditEntry](ctx, a.db, AuditCollection, filter, "created_at", int64(limit))
		if err == nil {
			return entries
		}
		logger.Warn(fmt.Sprintf("Auditoría: lectura desde la base de datos fallida: %v", err), "Audit")
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.AuditEntry, 0, limit)
	for i := len(a.recent) - 1; i >= 0 && len(out) < limit; i-- {
		if chatID == "" || a.recent[i].ChatID == chatID {
			out = append(out, a.recent[i])
		}
	}
	return out
}

// Size returns the number of entries kept in memory
func (a *AuditLog) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.recent)
}
