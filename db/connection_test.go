package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolProvider(t *testing.T) {
	t.Run("hands_out_pool_connections", func(t *testing.T) {
		pool, mock, err := sqlmock.New()
		require.NoError(t, err)
		provider := NewPoolProvider(pool)
		defer provider.Close()

		conn, err := provider.Connection(context.Background())
		require.NoError(t, err)
		assert.NoError(t, conn.Close())
		_ = mock
	})

	t.Run("ping_reaches_the_database", func(t *testing.T) {
		pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		provider := NewPoolProvider(pool)
		defer provider.Close()

		mock.ExpectPing()
		assert.NoError(t, provider.Ping(context.Background()))
	})

	t.Run("connection_failure_carries_no_password", func(t *testing.T) {
		pool, mock, err := sqlmock.New()
		require.NoError(t, err)
		provider := NewPoolProvider(pool)
		mock.ExpectClose()
		require.NoError(t, provider.Close())

		_, err = provider.Connection(context.Background())
		require.Error(t, err)
		var ce *ConnectivityError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestConnectivityError(t *testing.T) {
	t.Run("redacts_password_in_message", func(t *testing.T) {
		err := &ConnectivityError{URL: "postgres://localhost/app", User: "alice", Err: assert.AnError}
		assert.Contains(t, err.Error(), "********")
		assert.Contains(t, err.Error(), "alice")
		assert.Contains(t, err.Error(), "postgres://localhost/app")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
