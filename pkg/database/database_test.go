package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertQueuesWhileOffline(t *testing.T) {
	d := NewDatabase()

	require.NoError(t, d.Insert(context.Background(), AuditCollection, map[string]string{"kind": "kick_user"}))
	require.NoError(t, d.Insert(context.Background(), AuditCollection, map[string]string{"kind": "warn_user"}))

	assert.Equal(t, 2, d.QueueLen())
	assert.False(t, d.Connected())
}

func TestReadsFailWhileOffline(t *testing.T) {
	d := NewDatabase()

	_, err := d.Ping()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = FindRecent[map[string]interface{}](context.Background(), d, AuditCollection, nil, "created_at", 5)
	assert.ErrorIs(t, err, ErrNotConnected)

	status, ok := d.GetStatus()
	assert.False(t, ok)
	assert.Contains(t, status, "Desconectado")
}

func TestDisconnectTwice(t *testing.T) {
	d := NewDatabase()
	require.NoError(t, d.Disconnect())
	assert.NotPanics(t, func() { _ = d.Disconnect() })
}
