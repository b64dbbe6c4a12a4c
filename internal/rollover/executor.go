package rollover

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/zskroll/internal/metrics"
	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// kind etiqueta la acción para logs y métricas.
func kind(a zsk.Action) string {
	switch a.(type) {
	case zsk.Activate:
		return "activate"
	case zsk.Create:
		return "create"
	case zsk.Deactivate:
		return "deactivate"
	case zsk.Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// apply ejecuta el plan en orden, cortando en el primer fallo. Devuelve cuántas
// acciones aplicaron; en caso de error, el error es un *OperationError con la
// acción que falló. No hay rollback: ver OperationError.
func apply(ctx context.Context, svc Service, actions []zsk.Action, log *zap.Logger) (int, error) {
	for i, a := range actions {
		var err error
		switch act := a.(type) {
		case zsk.Activate:
			err = svc.ActivateKey(ctx, act.ID)
		case zsk.Create:
			var id string
			id, err = svc.CreateKey(ctx, act.Algorithm, act.Bits, act.Role, act.ActivateNow)
			if err == nil {
				log.Info("key created", logger.KeyID(id))
			}
		case zsk.Deactivate:
			err = svc.DeactivateKey(ctx, act.ID)
		case zsk.Delete:
			err = svc.DeleteKey(ctx, act.ID)
		}
		if err != nil {
			log.Error("action failed",
				logger.Action(a.String()),
				logger.Int("applied", i),
				logger.Err(err),
			)
			return i, &OperationError{Action: a, Err: err}
		}
		metrics.ActionsApplied.WithLabelValues(kind(a)).Inc()
		log.Info("action applied", logger.Action(a.String()))
	}
	return len(actions), nil
}
