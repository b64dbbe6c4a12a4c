package zsk

import "fmt"

// Parámetros de la clave pre-publicada que se crea en cada rollover.
const (
	NewKeyAlgorithm = "RSASHA256"
	NewKeyBits      = 1024
	NewKeyRole      = "ZSK"
)

// DefaultSafetyFactor es el factor de seguridad cuando la configuración no
// define uno (o define uno inválido).
const DefaultSafetyFactor = 10

// Policy define la ventana de seguridad del rollover.
type Policy struct {
	// SafetyFactor multiplica el MaxTTL del set: una clave pre-publicada recién
	// promueve cuando su firma tuvo SafetyFactor×MaxTTL segundos para propagarse
	// por los caches.
	SafetyFactor int64
}

// Threshold devuelve la ventana efectiva en segundos para un maxTTL dado.
// SafetyFactor=0 con MaxTTL=0 da umbral 0: configuración degenerada pero aceptada
// (toda clave con edad positiva queda elegible de inmediato).
func (p Policy) Threshold(maxTTL int64) int64 { return p.SafetyFactor * maxTTL }

// Action es una operación a aplicar contra la plataforma. Conjunto cerrado de
// variantes: Activate, Create, Deactivate, Delete. Las acciones son efímeras,
// se producen y consumen dentro de una misma corrida.
type Action interface {
	fmt.Stringer
	action()
}

// Activate promueve una clave pre-publicada a autoritativa.
type Activate struct{ ID string }

// Create publica una clave nueva (pre-publicada cuando ActivateNow es false).
type Create struct {
	Algorithm   string
	Bits        int
	Role        string
	ActivateNow bool
}

// Deactivate retira la clave activa anterior.
type Deactivate struct{ ID string }

// Delete elimina una clave ya desactivada cuya ventana expiró.
type Delete struct{ ID string }

func (Activate) action()   {}
func (Create) action()     {}
func (Deactivate) action() {}
func (Delete) action()     {}

func (a Activate) String() string { return "activate key " + a.ID }
func (c Create) String() string {
	return fmt.Sprintf("create %s key (%s/%d, activate=%t)", c.Role, c.Algorithm, c.Bits, c.ActivateNow)
}
func (a Deactivate) String() string { return "deactivate key " + a.ID }
func (a Delete) String() string     { return "delete key " + a.ID }

// Plan calcula la lista ordenada de acciones pendientes para esta corrida.
//
// Si la clave pre-publicada superó la ventana, el rollover emite siempre en este
// orden: activar la pre-publicada, crear la próxima pre-publicada, desactivar la
// activa anterior. El orden garantiza que nunca hay un hueco con cero claves
// autoritativas ni con cero pre-publicadas (continuidad para el próximo ciclo).
//
// Después, cada clave desactivada cuya propia edad superó la ventana se elimina;
// cada una se evalúa independiente de las demás. Una clave desactivada por esta
// misma corrida tiene edad 0 y nunca califica en el mismo paso.
//
// Las comparaciones son estrictas (>): igualar el umbral no dispara nada.
// Un plan vacío es un resultado válido y esperado.
func Plan(set *Set, policy Policy) []Action {
	threshold := policy.Threshold(set.MaxTTL)

	var actions []Action
	if set.PrePublished.CreatedAgo > threshold {
		actions = append(actions,
			Activate{ID: set.PrePublished.ID},
			Create{Algorithm: NewKeyAlgorithm, Bits: NewKeyBits, Role: NewKeyRole},
			Deactivate{ID: set.Active.ID},
		)
	}
	for _, k := range set.Deactivated {
		if k.DeactivatedAgo > threshold {
			actions = append(actions, Delete{ID: k.ID})
		}
	}
	return actions
}
