package moderation

import (
	"sort"
	"sync"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

type memberKey struct {
	chatID string
	userID string
}

// WarningLedger counts violations per member per chat.
// The engine is the only writer; the lock exists for snapshot readers.
type WarningLedger struct {
	counts map[memberKey]int
	mu     sync.RWMutex
}

// NewWarningLedger creates an empty ledger
func NewWarningLedger() *WarningLedger {
	return &WarningLedger{
		counts: make(map[memberKey]int),
	}
}

// RecordViolation increments the member's count and returns the new value
func (l *WarningLedger) RecordViolation(chatID, userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := memberKey{chatID, userID}
	l.counts[k]++
	return l.counts[k]
}

// Count returns the member's current count, 0 when there is no record
func (l *WarningLedger) Count(chatID, userID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[memberKey{chatID, userID}]
}

// Clear removes the member's record. Clearing a missing record is a no-op.
func (l *WarningLedger) Clear(chatID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, memberKey{chatID, userID})
}

// Len returns the number of members with at least one warning
func (l *WarningLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.counts)
}

// Records returns the records of a chat ordered by count, highest first.
// An empty chatID returns every record.
func (l *WarningLedger) Records(chatID string) []models.WarningRecord {
	l.mu.RLock()
	out := make([]models.WarningRecord, 0, len(l.counts))
	for k, c := range l.counts {
		if chatID != "" && k.chatID != chatID {
			continue
		}
		out = append(out, models.WarningRecord{ChatID: k.chatID, UserID: k.userID, Count: c})
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
