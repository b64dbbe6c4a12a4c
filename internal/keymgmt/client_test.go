package keymgmt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		Endpoint: srv.URL,
		Domain:   "example.org",
		APIKey:   "k-test",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestZSKInfo_ParsesInventory(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Api-Key")
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/domains/example.org/zsk", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"keys": [
				{"id": "1", "activated": true, "created_ago_seconds": 900000, "max_ttl": 3600},
				{"id": "2", "activated": false, "created_ago_seconds": 60000},
				{"id": "3", "activated": false, "deactivated_at": "2026-08-01T00:00:00Z",
				 "created_ago_seconds": 1800000, "deactivated_ago_seconds": 40000}
			]
		}`))
	}))

	keys, err := c.ZSKInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "k-test", gotAuth)

	assert.Equal(t, "1", keys[0].ID)
	assert.True(t, keys[0].Activated)
	assert.EqualValues(t, 3600, keys[0].MaxTTL)

	assert.False(t, keys[1].Activated)
	assert.Nil(t, keys[1].DeactivatedAt)

	require.NotNil(t, keys[2].DeactivatedAt)
	assert.True(t, keys[2].Deactivated())
	assert.EqualValues(t, 40000, keys[2].DeactivatedAgo)
}

func TestZSKInfo_MalformedResponse(t *testing.T) {
	cases := map[string]string{
		"no json":   `<html>oops</html>`,
		"sin keys":  `{"total": 3}`,
		"keys null": `{"keys": null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			_, err := c.ZSKInfo(context.Background())
			require.Error(t, err)
		})
	}
}

func TestMutations_PathsAndAPIError(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.URL.Path == "/v1/domains/example.org/zsk" {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": "nueva-42"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()

	require.NoError(t, c.ActivateKey(ctx, "2"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/domains/example.org/zsk/2/activate", gotPath)

	id, err := c.CreateKey(ctx, "RSASHA256", 1024, "ZSK", false)
	require.NoError(t, err)
	assert.Equal(t, "nueva-42", id)

	require.NoError(t, c.DeactivateKey(ctx, "1"))
	assert.Equal(t, "/v1/domains/example.org/zsk/1/deactivate", gotPath)

	require.NoError(t, c.DeleteKey(ctx, "3"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/domains/example.org/zsk/3", gotPath)
}

func TestMutation_Non2xxIsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": "key already active"}`))
	}))

	err := c.ActivateKey(context.Background(), "2")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Contains(t, apiErr.Body, "already active")
}

func TestNew_BadCAFile(t *testing.T) {
	_, err := New(Options{Endpoint: "https://x", CAFile: "/nonexistent/ca.pem"})
	require.Error(t, err)
}
