// Package rollover orquesta una corrida completa: inventario, clasificación,
// plan y ejecución de acciones contra la plataforma de gestión de claves.
package rollover

import (
	"context"
	"time"

	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// Service es la superficie de la plataforma de claves que necesita una corrida.
// *keymgmt.Client la implementa; los tests usan un fake.
type Service interface {
	ZSKInfo(ctx context.Context) ([]zsk.Key, error)
	ActivateKey(ctx context.Context, id string) error
	CreateKey(ctx context.Context, algorithm string, bits int, role string, activate bool) (string, error)
	DeactivateKey(ctx context.Context, id string) error
	DeleteKey(ctx context.Context, id string) error
}

// Locker serializa corridas concurrentes contra la misma instalación.
// Acquire devuelve ok=false si otro proceso tiene el lock; release libera
// solo si el lock sigue siendo nuestro.
type Locker interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// History persiste el resultado de cada corrida. Best effort: un fallo acá se
// loguea pero no cambia el resultado de la corrida.
type History interface {
	Record(ctx context.Context, rec RunRecord) error
}

// Notifier avisa a los operadores cuando una corrida falla. Best effort.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// TTLProbe contrasta el max TTL reportado por la plataforma con el observado
// en el DNS público. Devuelve el TTL observado; discrepancias solo se loguean.
type TTLProbe interface {
	MaxTTL(ctx context.Context, domain string) (uint32, error)
}

// RunRecord es la fila de historia de una corrida.
type RunRecord struct {
	RunID      string
	Domain     string
	Outcome    string
	DryRun     bool
	Planned    int
	Applied    int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
