// Package zsk modela el inventario de Zone Signing Keys de una instalación DNSSEC
// y decide qué transiciones de estado corresponden en una corrida de rollover.
//
// El ciclo de vida de una clave a través de corridas sucesivas es:
//
//	pre-publicada → activa → desactivada → eliminada
//
// Una clave nunca salta un estado, y por corrida dispara a lo sumo una transición.
package zsk

import "time"

// Key es una ZSK tal como la reporta la plataforma de gestión de claves.
type Key struct {
	// ID es el identificador opaco de la clave.
	ID string

	// Activated indica si esta es LA clave autoritativa de firma.
	Activated bool

	// DeactivatedAt está presente sii la clave fue desactivada explícitamente.
	DeactivatedAt *time.Time

	// CreatedAgo: segundos transcurridos desde la creación.
	CreatedAgo int64

	// DeactivatedAgo: segundos desde la desactivación.
	// Solo significativo cuando DeactivatedAt != nil.
	DeactivatedAgo int64

	// MaxTTL es el TTL máximo observado en la instalación al momento del reporte.
	// La plataforma lo adjunta a la clave activa, pero es un valor del set completo.
	MaxTTL int64
}

// Deactivated indica si la clave fue desactivada explícitamente.
func (k Key) Deactivated() bool { return k.DeactivatedAt != nil }

// Set es el inventario clasificado de una instalación en un instante dado.
// Invariante: exactamente una clave activa, exactamente una pre-publicada
// (inactiva y nunca desactivada), y cero o más desactivadas.
type Set struct {
	Active       Key
	PrePublished Key

	// Deactivated conserva el orden en que la plataforma reportó las claves.
	Deactivated []Key

	// MaxTTL se toma del valor reportado en la clave activa.
	MaxTTL int64
}
