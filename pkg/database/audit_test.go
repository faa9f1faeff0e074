package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	docs map[string][]interface{}
	err  error
}

func (m *memoryStore) Insert(_ context.Context, collectionName string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.docs == nil {
		m.docs = make(map[string][]interface{})
	}
	m.docs[collectionName] = append(m.docs[collectionName], doc)
	return nil
}

func newTestAuditLog(store auditStore, capacity int) *AuditLog {
	a := newAuditLog(store, capacity)
	seq := 0
	a.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestEntryFor(t *testing.T) {
	tests := []struct {
		name   string
		action moderation.Action
		want   models.AuditEntry
	}{
		{
			name:   "delete",
			action: moderation.DeleteMessage{ChatID: "c1", MessageID: "m1"},
			want:   models.AuditEntry{Kind: "delete_message", ChatID: "c1", MessageID: "m1"},
		},
		{
			name:   "warn",
			action: moderation.WarnUser{ChatID: "c1", UserID: "u1", Remaining: 3},
			want:   models.AuditEntry{Kind: "warn_user", ChatID: "c1", UserID: "u1", Remaining: 3},
		},
		{
			name:   "kick",
			action: moderation.KickUser{ChatID: "c1", UserID: "u1"},
			want:   models.AuditEntry{Kind: "kick_user", ChatID: "c1", UserID: "u1"},
		},
		{
			name:   "report",
			action: moderation.PostReport{ChatID: "c2", Text: "informe"},
			want:   models.AuditEntry{Kind: "post_report", ChatID: "c2", Text: "informe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryFor(tt.action))
		})
	}
}

func TestAuditLogWritesToStore(t *testing.T) {
	store := &memoryStore{}
	a := newTestAuditLog(store, 10)

	require.NoError(t, a.Apply(context.Background(), moderation.KickUser{ChatID: "c1", UserID: "u1"}))

	require.Len(t, store.docs[AuditCollection], 1)
	entry := store.docs[AuditCollection][0].(models.AuditEntry)
	assert.Equal(t, "id-1", entry.ID)
	assert.Equal(t, "kick_user", entry.Kind)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditLogStoreFailureIsAbsorbed(t *testing.T) {
	store := &memoryStore{err: errors.New("offline")}
	a := newTestAuditLog(store, 10)

	assert.NoError(t, a.Apply(context.Background(), moderation.DeleteMessage{ChatID: "c1", MessageID: "m1"}))
	assert.Equal(t, 1, a.Size())
}

func TestAuditLogRecentNewestFirstAndBounded(t *testing.T) {
	a := newTestAuditLog(nil, 3)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		chat := "c1"
		if i%2 == 0 {
			chat = "c2"
		}
		require.NoError(t, a.Apply(ctx, moderation.DeleteMessage{ChatID: chat, MessageID: fmt.Sprintf("m%d", i)}))
	}

	assert.Equal(t, 3, a.Size())

	all := a.Recent(ctx, "", 10)
	require.Len(t, all, 3)
	assert.Equal(t, "m4", all[0].MessageID)
	assert.Equal(t, "m2", all[2].MessageID)

	c1 := a.Recent(ctx, "c1", 10)
	require.Len(t, c1, 1)
	assert.Equal(t, "m3", c1[0].MessageID)

	assert.Len(t, a.Recent(ctx, "", 2), 2)
}

func TestNewAuditLogWithoutDatabase(t *testing.T) {
	a := NewAuditLog(nil, 0)
	assert.Nil(t, a.store)
	assert.NoError(t, a.Apply(context.Background(), moderation.WarnUser{ChatID: "c", UserID: "u", Remaining: 4}))
	assert.Len(t, a.Recent(context.Background(), "c", 0), 1)
}
