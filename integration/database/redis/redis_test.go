package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portalguard/integration/database/redis"
)

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		err  error
	}{
		{"empty", "", redis.ErrEmptyConnectionURL},
		{"blank", "   ", redis.ErrEmptyConnectionURL},
		{"wrong scheme", "http://localhost:6379", redis.ErrFailedToParseRedisConnString},
		{"bad db", "redis://localhost:6379/notanumber", redis.ErrFailedToParseRedisConnString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: tt.url})
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, client)
		})
	}
}

func TestWaitReady(t *testing.T) {
	t.Parallel()

	t.Run("ready after retry", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(errors.New("connection refused"))
		mock.ExpectPing().SetVal("PONG")

		err := redis.WaitReady(context.Background(), client, 3, time.Millisecond)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("never ready", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(errors.New("connection refused"))
		mock.ExpectPing().SetErr(errors.New("connection refused"))

		err := redis.WaitReady(context.Background(), client, 2, time.Millisecond)
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("context cancelled", func(t *testing.T) {
		t.Parallel()

		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(errors.New("connection refused"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := redis.WaitReady(ctx, client, 5, time.Hour)
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	check := redis.Healthcheck(client)

	mock.ExpectPing().SetVal("PONG")
	require.NoError(t, check(context.Background()))

	mock.ExpectPing().SetErr(errors.New("timeout"))
	err := check(context.Background())
	require.ErrorIs(t, err, redis.ErrHealthcheckFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
