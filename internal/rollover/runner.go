package rollover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/zskroll/internal/metrics"
	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// Resultados posibles de una corrida.
const (
	OutcomeOK              = "ok"
	OutcomeNoop            = "noop"
	OutcomeDryRun          = "dry-run"
	OutcomeValidationError = "validation-error"
	OutcomeTransportError  = "transport-error"
	OutcomeOperationError  = "operation-error"
)

// Runner arma y ejecuta corridas de rollover. Lock, History, Alerts y TTL son
// opcionales (nil los deshabilita); Svc y Policy son obligatorios.
type Runner struct {
	Svc    Service
	Policy zsk.Policy
	Domain string
	DryRun bool

	Lock    Locker
	History History
	Alerts  Notifier
	TTL     TTLProbe

	Log *zap.Logger
}

// Report resume una corrida para la CLI y para el endpoint de estado del daemon.
type Report struct {
	RunID      string    `json:"run_id"`
	Domain     string    `json:"domain"`
	Outcome    string    `json:"outcome"`
	DryRun     bool      `json:"dry_run"`
	Planned    []string  `json:"planned"`
	Applied    int       `json:"applied"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run ejecuta una corrida completa: inventario, clasificación, plan, ejecución.
// Siempre devuelve un Report (también en fallo) para que el caller pueda
// publicar el estado; err != nil sii la corrida no terminó limpia.
//
// Si otro proceso tiene el lock devuelve (nil, ErrLocked) sin tocar nada.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		Domain:    r.Domain,
		DryRun:    r.DryRun,
		StartedAt: time.Now().UTC(),
	}
	log = log.With(logger.RunID(rep.RunID), logger.Domain(r.Domain))

	if r.Lock != nil {
		release, ok, err := r.Lock.Acquire(ctx)
		if err != nil {
			log.Warn("lock unavailable, proceeding without it", logger.Err(err))
		} else if !ok {
			log.Info("run skipped", logger.String("reason", "lock held"))
			return nil, ErrLocked
		} else {
			defer release()
		}
	}

	err := r.run(ctx, rep, log)
	rep.FinishedAt = time.Now().UTC()
	if err != nil {
		rep.Error = err.Error()
	}

	metrics.RunsTotal.WithLabelValues(rep.Outcome).Inc()
	metrics.RunDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
	r.finish(ctx, rep, log)

	return rep, err
}

// run hace el trabajo y clasifica el resultado; Run se queda con el bookkeeping.
func (r *Runner) run(ctx context.Context, rep *Report, log *zap.Logger) error {
	keys, err := r.Svc.ZSKInfo(ctx)
	if err != nil {
		rep.Outcome = OutcomeTransportError
		return &TransportError{Err: err}
	}
	log.Debug("inventory fetched", logger.Count(len(keys)))

	set, err := zsk.Classify(keys)
	if err != nil {
		rep.Outcome = OutcomeValidationError
		return err
	}

	if r.TTL != nil {
		r.crossCheckTTL(ctx, set, log)
	}

	actions := zsk.Plan(set, r.Policy)
	rep.Planned = make([]string, 0, len(actions))
	for _, a := range actions {
		rep.Planned = append(rep.Planned, a.String())
	}
	log.Info("plan computed",
		logger.MaxTTL(set.MaxTTL),
		logger.Threshold(r.Policy.Threshold(set.MaxTTL)),
		logger.Count(len(actions)),
	)

	if len(actions) == 0 {
		rep.Outcome = OutcomeNoop
		return nil
	}
	if r.DryRun {
		rep.Outcome = OutcomeDryRun
		for _, a := range actions {
			log.Info("would apply", logger.Action(a.String()))
		}
		return nil
	}

	applied, err := apply(ctx, r.Svc, actions, log)
	rep.Applied = applied
	if err != nil {
		rep.Outcome = OutcomeOperationError
		return err
	}
	rep.Outcome = OutcomeOK
	return nil
}

// crossCheckTTL compara el max TTL reportado contra el observado en el DNS
// público. Solo diagnóstico: una discrepancia se loguea y la corrida sigue con
// el valor reportado por la plataforma.
func (r *Runner) crossCheckTTL(ctx context.Context, set *zsk.Set, log *zap.Logger) {
	observed, err := r.TTL.MaxTTL(ctx, r.Domain)
	if err != nil {
		log.Warn("ttl cross-check failed", logger.Err(err))
		return
	}
	if int64(observed) > set.MaxTTL {
		log.Warn("observed ttl exceeds reported max ttl",
			logger.MaxTTL(set.MaxTTL),
			logger.Int("observed_ttl", int(observed)),
		)
	}
}

// finish persiste la corrida y alerta si falló. Ambos best effort.
func (r *Runner) finish(ctx context.Context, rep *Report, log *zap.Logger) {
	if r.History != nil {
		rec := RunRecord{
			RunID:      rep.RunID,
			Domain:     rep.Domain,
			Outcome:    rep.Outcome,
			DryRun:     rep.DryRun,
			Planned:    len(rep.Planned),
			Applied:    rep.Applied,
			Error:      rep.Error,
			StartedAt:  rep.StartedAt,
			FinishedAt: rep.FinishedAt,
		}
		if err := r.History.Record(ctx, rec); err != nil {
			log.Warn("history record failed", logger.Err(err))
		}
	}

	failed := rep.Outcome == OutcomeValidationError ||
		rep.Outcome == OutcomeTransportError ||
		rep.Outcome == OutcomeOperationError
	if failed && r.Alerts != nil {
		subject := fmt.Sprintf("[zskroll] %s: rollover failed (%s)", rep.Domain, rep.Outcome)
		body := r.alertBody(rep)
		if err := r.Alerts.Notify(ctx, subject, body); err != nil {
			log.Warn("alert delivery failed", logger.Err(err))
		}
	}
}

func (r *Runner) alertBody(rep *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s for %s finished with outcome %q.\n\n", rep.RunID, rep.Domain, rep.Outcome)
	fmt.Fprintf(&b, "Error: %s\n", rep.Error)
	fmt.Fprintf(&b, "Actions applied: %d of %d planned.\n", rep.Applied, len(rep.Planned))
	if len(rep.Planned) > 0 {
		b.WriteString("\nPlan:\n")
		for _, p := range rep.Planned {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	b.WriteString("\nNo actions were rolled back; the next run re-derives the plan from the live inventory.\n")
	return b.String()
}
