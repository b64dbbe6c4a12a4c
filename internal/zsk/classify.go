package zsk

import "fmt"

// Razones de violación del invariante estructural del inventario.
const (
	ReasonMultipleActive       = "multiple-active"
	ReasonMultiplePrePublished = "multiple-prepublished"
	ReasonMissing              = "missing-active-or-prepublished"
	ReasonActiveAndDeactivated = "active-and-deactivated"
)

// ValidationError indica que el inventario reportado viola el invariante
// estructural (§Set). Es fatal para la corrida y requiere intervención manual
// del operador: nunca se auto-corrige, porque "reparar" un set con doble clave
// activa puede significar retirar firmas todavía vigentes.
type ValidationError struct {
	Reason string
	KeyID  string // clave ofensora, si aplica
}

func (e *ValidationError) Error() string {
	if e.KeyID != "" {
		return fmt.Sprintf("zsk: invalid key set (%s, key %s)", e.Reason, e.KeyID)
	}
	return fmt.Sprintf("zsk: invalid key set (%s)", e.Reason)
}

// Classify particiona el inventario crudo en activa / pre-publicada / desactivadas,
// validando el invariante en una sola pasada. Función pura, sin efectos.
//
// Una clave reportada a la vez como activada y desactivada es una combinación que
// la plataforma no debería producir jamás; se rechaza en lugar de adivinar precedencia.
func Classify(keys []Key) (*Set, error) {
	if len(keys) < 2 {
		return nil, &ValidationError{Reason: ReasonMissing}
	}

	var (
		set        Set
		haveActive bool
		havePrepub bool
	)
	for _, k := range keys {
		switch {
		case k.Activated && k.Deactivated():
			return nil, &ValidationError{Reason: ReasonActiveAndDeactivated, KeyID: k.ID}
		case k.Activated:
			if haveActive {
				return nil, &ValidationError{Reason: ReasonMultipleActive, KeyID: k.ID}
			}
			set.Active = k
			set.MaxTTL = k.MaxTTL
			haveActive = true
		case !k.Deactivated():
			if havePrepub {
				return nil, &ValidationError{Reason: ReasonMultiplePrePublished, KeyID: k.ID}
			}
			set.PrePublished = k
			havePrepub = true
		default:
			set.Deactivated = append(set.Deactivated, k)
		}
	}

	if !haveActive || !havePrepub {
		return nil, &ValidationError{Reason: ReasonMissing}
	}
	return &set, nil
}
