// Package httpapi expone la superficie HTTP del daemon: health, métricas,
// disparo manual de corridas y el estado de la última corrida.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/rollover"
)

const lastReportKey = "last_report"

// HistoryReader es la parte de lectura del store de historia.
type HistoryReader interface {
	Recent(ctx context.Context, domain string, limit int) ([]rollover.RunRecord, error)
}

// Server arma el router del daemon alrededor de un Runner compartido.
type Server struct {
	Runner *rollover.Runner

	// APIKey protege los endpoints /v1. Vacío = sin auth (solo dev).
	APIKey string

	// History habilita GET /v1/rollover/history cuando hay store configurado.
	History HistoryReader

	// sf colapsa disparos manuales concurrentes en una sola corrida.
	sf singleflight.Group

	// last cachea el último Report para GET /v1/rollover/last.
	last *gocache.Cache
}

// New crea el server. El cache de estado retiene la última corrida 24h: después
// de eso "no data" es una respuesta más honesta que un reporte viejo.
func New(runner *rollover.Runner, apiKey string) *Server {
	return &Server{
		Runner: runner,
		APIKey: apiKey,
		last:   gocache.New(24*time.Hour, time.Hour),
	}
}

// Router construye el chi.Router con todas las rutas montadas.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/v1/rollover/run", s.handleRun)
		r.Get("/v1/rollover/last", s.handleLast)
		r.Get("/v1/rollover/history", s.handleHistory)
	})

	return r
}

// RecordReport publica un Report en el cache de estado. Lo usa también el loop
// periódico del daemon, así /last refleja cualquier corrida, no solo las manuales.
func (s *Server) RecordReport(rep *rollover.Report) {
	if rep != nil {
		s.last.Set(lastReportKey, rep, gocache.DefaultExpiration)
	}
}

// requestLogger deja en el contexto un logger con el request id de chi.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.L().With(logger.String("request_id", chimw.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ToContext(r.Context(), l)))
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey != "" {
			got := r.Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.APIKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid api key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /v1/rollover/run?dry_run=1
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "1"

	// singleflight: N triggers simultáneos comparten una sola corrida
	v, err, _ := s.sf.Do("run", func() (any, error) {
		runner := *s.Runner
		runner.DryRun = runner.DryRun || dryRun
		return runner.Run(r.Context())
	})

	if errors.Is(err, rollover.ErrLocked) {
		writeError(w, http.StatusLocked, "locked", "another run holds the lock")
		return
	}

	rep, _ := v.(*rollover.Report)
	s.RecordReport(rep)

	if err != nil {
		logger.From(r.Context()).Error("manual run failed", logger.Err(err))
		writeJSON(w, http.StatusBadGateway, rep)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /v1/rollover/last
func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	v, ok := s.last.Get(lastReportKey)
	if !ok {
		writeError(w, http.StatusNotFound, "no_runs", "no run recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /v1/rollover/history?limit=20
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, http.StatusNotFound, "no_history", "run history is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.History.Recent(r.Context(), s.Runner.Domain, limit)
	if err != nil {
		logger.From(r.Context()).Error("history query failed", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "history_error", "could not read run history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

// Serve levanta el listener y lo apaga limpio cuando el contexto se cancela.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
