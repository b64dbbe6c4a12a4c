package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar del dominio: usarlos en lugar de strings sueltos mantiene
// los nombres consistentes en todos los logs.

// RunID crea un campo para el ID de una corrida de rollover.
func RunID(v string) zap.Field {
	return zap.String("run_id", v)
}

// Domain crea un campo para el dominio/instalación DNS.
func Domain(v string) zap.Field {
	return zap.String("domain", v)
}

// KeyID crea un campo para el ID de una ZSK.
func KeyID(v string) zap.Field {
	return zap.String("key_id", v)
}

// Action crea un campo para una acción del plan.
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// Outcome crea un campo para el resultado de una corrida.
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// MaxTTL crea un campo para el TTL máximo reportado.
func MaxTTL(v int64) zap.Field {
	return zap.Int64("max_ttl", v)
}

// Threshold crea un campo para la ventana de seguridad en segundos.
func Threshold(v int64) zap.Field {
	return zap.Int64("threshold_seconds", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
