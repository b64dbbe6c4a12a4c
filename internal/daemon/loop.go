// Package daemon corre corridas de rollover en forma periódica.
package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/rollover"
)

// Loop dispara una corrida al arrancar y luego una por intervalo. Una corrida
// fallida no corta el loop: el error ya quedó en logs, métricas y alertas, y el
// próximo tick vuelve a intentar desde el inventario vivo.
type Loop struct {
	Runner   *rollover.Runner
	Interval time.Duration

	// OnReport recibe el reporte de cada corrida (también las fallidas).
	OnReport func(*rollover.Report)
}

// Run bloquea hasta que el contexto se cancele.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	rep, err := l.Runner.Run(ctx)
	if l.OnReport != nil && rep != nil {
		l.OnReport(rep)
	}
	switch {
	case errors.Is(err, rollover.ErrLocked):
		logger.L().Info("tick skipped, lock held elsewhere")
	case err != nil:
		logger.L().Error("scheduled run failed", logger.Err(err))
	}
}
