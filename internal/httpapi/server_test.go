package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/zskroll/internal/rollover"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// stubService devuelve un inventario sano sin nada pendiente.
type stubService struct {
	mutations int
}

func (s *stubService) ZSKInfo(ctx context.Context) ([]zsk.Key, error) {
	return []zsk.Key{
		{ID: "1", Activated: true, CreatedAgo: 900000, MaxTTL: 3600},
		{ID: "2", CreatedAgo: 100},
	}, nil
}

func (s *stubService) ActivateKey(ctx context.Context, id string) error {
	s.mutations++
	return nil
}

func (s *stubService) CreateKey(ctx context.Context, algorithm string, bits int, role string, activate bool) (string, error) {
	s.mutations++
	return "x", nil
}

func (s *stubService) DeactivateKey(ctx context.Context, id string) error {
	s.mutations++
	return nil
}

func (s *stubService) DeleteKey(ctx context.Context, id string) error {
	s.mutations++
	return nil
}

func newTestServer(t *testing.T, apiKey string) (*Server, *httptest.Server) {
	t.Helper()
	runner := &rollover.Runner{
		Svc:    &stubService{},
		Policy: zsk.Policy{SafetyFactor: 10},
		Domain: "example.org",
	}
	s := New(runner, apiKey)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func doReq(t *testing.T, method, url, apiKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	_, ts := newTestServer(t, "secret")
	resp := doReq(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics_Exposed(t *testing.T) {
	_, ts := newTestServer(t, "secret")
	resp := doReq(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_RequiresAPIKey(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	resp := doReq(t, http.MethodPost, ts.URL+"/v1/rollover/run", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/v1/rollover/run", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/v1/rollover/run", "secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLast_NotFoundThenPopulated(t *testing.T) {
	s, ts := newTestServer(t, "secret")

	resp := doReq(t, http.MethodGet, ts.URL+"/v1/rollover/last", "secret")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.RecordReport(&rollover.Report{
		RunID:     "r-1",
		Domain:    "example.org",
		Outcome:   rollover.OutcomeNoop,
		StartedAt: time.Now().UTC(),
	})

	resp = doReq(t, http.MethodGet, ts.URL+"/v1/rollover/last", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type stubHistory struct {
	recs []rollover.RunRecord
}

func (h *stubHistory) Recent(ctx context.Context, domain string, limit int) ([]rollover.RunRecord, error) {
	return h.recs, nil
}

func TestHistory_NotConfigured(t *testing.T) {
	_, ts := newTestServer(t, "")
	resp := doReq(t, http.MethodGet, ts.URL+"/v1/rollover/history", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistory_ReturnsRuns(t *testing.T) {
	s, _ := newTestServer(t, "")
	s.History = &stubHistory{recs: []rollover.RunRecord{{RunID: "r-1", Domain: "example.org", Outcome: rollover.OutcomeOK}}}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	resp := doReq(t, http.MethodGet, ts.URL+"/v1/rollover/history", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_PublishesLastReport(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp := doReq(t, http.MethodPost, ts.URL+"/v1/rollover/run", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodGet, ts.URL+"/v1/rollover/last", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
