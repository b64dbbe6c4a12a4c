// Package app arma el Container con todas las dependencias de una corrida a
// partir de la configuración. CLI y daemon comparten este wiring.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/zskroll/internal/alert"
	"github.com/dropDatabas3/zskroll/internal/config"
	"github.com/dropDatabas3/zskroll/internal/dnscheck"
	"github.com/dropDatabas3/zskroll/internal/history"
	"github.com/dropDatabas3/zskroll/internal/keymgmt"
	"github.com/dropDatabas3/zskroll/internal/lock"
	"github.com/dropDatabas3/zskroll/internal/metrics"
	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/rollover"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// Container agrupa las dependencias ya construidas.
type Container struct {
	Config *config.Config
	Client *keymgmt.Client
	Runner *rollover.Runner

	histStore *history.Store
	redisLock *lock.RedisLock
}

// Build valida la configuración y construye el Container. Los colaboradores
// opcionales (lock, historia, alertas, ttl check) se arman solo si están
// configurados; un colaborador opcional que no conecta es fatal acá y no a
// mitad de una corrida.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("app: register metrics: %w", err)
	}

	client, err := keymgmt.New(keymgmt.Options{
		Endpoint: cfg.Platform.Endpoint,
		Domain:   cfg.Platform.Domain,
		APIKey:   cfg.Platform.APIKey,
		CAFile:   cfg.Platform.CAFile,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Client: client,
		Runner: &rollover.Runner{
			Svc:    client,
			Policy: zsk.Policy{SafetyFactor: cfg.SafetyFactor()},
			Domain: cfg.Platform.Domain,
			Log:    logger.L(),
		},
	}

	if cfg.Lock.Redis.Addr != "" {
		rl, err := lock.NewRedis(lock.Config{
			Addr:   cfg.Lock.Redis.Addr,
			DB:     cfg.Lock.Redis.DB,
			Prefix: cfg.Lock.Redis.Prefix,
			TTL:    cfg.LockTTL(),
		}, cfg.Platform.Domain)
		if err != nil {
			return nil, err
		}
		c.redisLock = rl
		c.Runner.Lock = rl
	}

	if cfg.History.DSN != "" {
		hs, err := history.New(ctx, cfg.History.DSN)
		if err != nil {
			c.Close()
			return nil, err
		}
		if err := hs.Migrate(ctx); err != nil {
			hs.Close()
			c.Close()
			return nil, err
		}
		c.histStore = hs
		c.Runner.History = hs
	}

	if cfg.Alerts.SMTP.Host != "" && cfg.Alerts.To != "" {
		c.Runner.Alerts = &alert.Mailer{
			Host:               cfg.Alerts.SMTP.Host,
			Port:               cfg.Alerts.SMTP.Port,
			From:               cfg.Alerts.SMTP.From,
			To:                 cfg.Alerts.To,
			User:               cfg.Alerts.SMTP.Username,
			Pass:               cfg.Alerts.SMTP.Password,
			TLSMode:            cfg.Alerts.SMTP.TLS,
			InsecureSkipVerify: cfg.Alerts.SMTP.InsecureSkipVerify,
		}
	}

	if cfg.TTLCheck.Enabled {
		c.Runner.TTL = dnscheck.New(cfg.TTLCheck.Resolver)
	}

	return c, nil
}

// History expone el store de historia (nil si no está configurado).
func (c *Container) History() *history.Store { return c.histStore }

// Close libera las conexiones del Container. Idempotente.
func (c *Container) Close() error {
	var errs []error
	if c.histStore != nil {
		c.histStore.Close()
		c.histStore = nil
	}
	if c.redisLock != nil {
		if err := c.redisLock.Close(); err != nil {
			errs = append(errs, err)
		}
		c.redisLock = nil
	}
	return errors.Join(errs...)
}
