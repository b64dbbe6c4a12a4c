package rollover

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// ErrLocked indica que otra corrida tiene el lock de la instalación.
var ErrLocked = errors.New("rollover: another run holds the lock")

// TransportError es un fallo de red o de protocolo al consultar el inventario.
// La clasificación nunca empezó: no hay estado a medio mutar.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "rollover: fetch inventory: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// OperationError es el fallo de una acción individual del plan. La ejecución se
// corta ahí: las acciones previas ya aplicaron y no se revierten, las restantes
// no se intentan. El estado remoto queda consistente igual (cada acción es
// atómica del lado de la plataforma) y la próxima corrida re-deriva el plan.
type OperationError struct {
	Action zsk.Action
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("rollover: %s: %v", e.Action, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
