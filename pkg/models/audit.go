package models

import "time"

// AuditEntry is one moderation action as written to the audit collection.
// Entries are write-only history; they are never loaded back into the engine.
type AuditEntry struct {
	ID        string    `bson:"_id" json:"id"`
	Kind      string    `bson:"kind" json:"kind"`
	ChatID    string    `bson:"chatId" json:"chatId"`
	UserID    string    `bson:"userId,omitempty" json:"userId,omitempty"`
	MessageID string    `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Remaining int       `bson:"remaining,omitempty" json:"remaining,omitempty"`
	Text      string    `bson:"text,omitempty" json:"text,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
