// Package lock serializa corridas de rollover contra la misma instalación
// usando un lock distribuido en Redis (SET NX + token de dueño).
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/zskroll/internal/observability/logger"
)

// releaseScript borra la key solo si el token sigue siendo el nuestro: un lock
// expirado y re-adquirido por otro proceso no debe poder liberarse desde acá.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type Config struct {
	Addr   string
	DB     int
	Prefix string
	TTL    time.Duration
}

// RedisLock implementa rollover.Locker sobre un Redis compartido.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis conecta y verifica el Redis del lock. El nombre del lock incluye el
// dominio: instalaciones distintas no compiten entre sí.
func NewRedis(cfg Config, domain string) (*RedisLock, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("lock: redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "zskroll"
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &RedisLock{
		client: rdb,
		key:    prefix + ":lock:" + domain,
		ttl:    ttl,
	}, nil
}

// Acquire intenta tomar el lock. ok=false significa que otro proceso lo tiene.
// El release devuelto es best effort: si falla, el TTL expira el lock solo.
func (l *RedisLock) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	got, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock: acquire %s: %w", l.key, err)
	}
	if !got {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(ctx, releaseScript, []string{l.key}, token).Err(); err != nil {
			logger.L().Warn("lock release failed, ttl will expire it",
				logger.String("key", l.key),
				logger.Err(err),
			)
		}
	}
	return release, true, nil
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}
