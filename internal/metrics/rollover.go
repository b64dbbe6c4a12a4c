package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del rollover. Van en un paquete propio para evitar ciclos
// de import entre el runner y el server HTTP.

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zskroll_runs_total",
		Help: "Corridas de rollover por resultado",
	}, []string{"outcome"})

	ActionsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zskroll_actions_applied_total",
		Help: "Acciones aplicadas contra la plataforma por tipo",
	}, []string{"kind"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zskroll_run_duration_seconds",
		Help:    "Duración de una corrida completa (inventario + plan + ejecución)",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// Register registers the rollover metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{RunsTotal, ActionsApplied, RunDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
