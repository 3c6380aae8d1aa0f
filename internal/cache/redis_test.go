package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinerec/internal/config"
)

func TestDisabledHelpersAreNoOps(t *testing.T) {
	require.NoError(t, InitRedis(&config.Config{}))
	require.False(t, Enabled())
	ctx := context.Background()

	var dest map[string]int
	ok, err := GetJSON(ctx, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	token, ok, err := AcquireLock(ctx, "lock", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	assert.NoError(t, ReleaseLock(ctx, "lock", token))
	assert.NoError(t, Close())
}

func TestInitRedis_Unreachable(t *testing.T) {
	err := InitRedis(&config.Config{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.False(t, Enabled())
}
