package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := NewClient(fxtest.NewLifecycle(t), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClient_Enabled(t *testing.T) {
	mr := miniredis.RunT(t)
	lc := fxtest.NewLifecycle(t)

	client, err := NewClient(lc, config.Config{Redis: config.RedisConfig{Enabled: true, Addr: mr.Addr()}}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))

	lc.RequireStart().RequireStop()
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(fxtest.NewLifecycle(t), config.Config{Redis: config.RedisConfig{Enabled: true, Addr: addr}}, zap.NewNop())
	assert.Error(t, err)
}
