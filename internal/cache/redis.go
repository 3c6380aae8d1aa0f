package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cinerec/internal/config"
	"cinerec/internal/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis conecta al Redis configurado. Con REDIS_ADDR vacío queda
// deshabilitado y los helpers no hacen nada.
func InitRedis(cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		logging.Info().Msg("[redis] REDIS_ADDR vacío, redis deshabilitado")
		return nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	client = c
	logging.Info().Str("addr", cfg.RedisAddr).Msg("[redis] OK")
	return nil
}

func Enabled() bool {
	return client != nil
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// =======================================================
//  Helpers JSON para usar desde los servicios
// =======================================================

// GetJSON lee una key de Redis, si existe deserializa el JSON en `dest`.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}

	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		// no existe la clave
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serializa `value` a JSON y lo guarda en Redis con TTL (0 = sin TTL).
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if client == nil {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// =======================================================
//  Lock distribuido (SETNX + token)
// =======================================================

// solo borra la key si el token sigue siendo el nuestro
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireLock intenta tomar el lock key por ttl. Devuelve el token a usar en
// ReleaseLock. Sin Redis el lock siempre se concede (una sola réplica).
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if client == nil {
		return token, true, nil
	}
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func ReleaseLock(ctx context.Context, key, token string) error {
	if client == nil {
		return nil
	}
	return releaseScript.Run(ctx, client, []string{key}, token).Err()
}
