// Package keymgmt es el cliente HTTP del servicio de gestión de claves de la
// plataforma de hosting DNS. Expone el inventario de ZSKs de una instalación y
// las mutaciones de su ciclo de vida.
package keymgmt

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// Options configura el cliente. La CA privada (si hay) se pasa explícita acá:
// nada de inyectar certificados vía estado global del proceso.
type Options struct {
	Endpoint string
	Domain   string
	APIKey   string
	CAFile   string
	Timeout  time.Duration
}

// Client habla JSON con la API de claves. Seguro para uso concurrente.
type Client struct {
	baseURL string
	domain  string
	apiKey  string
	http    *http.Client
}

// APIError es una respuesta no-2xx de la plataforma.
type APIError struct {
	Status int
	Op     string
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return fmt.Sprintf("keymgmt: %s: status=%d body=%s", e.Op, e.Status, body)
}

// New construye el cliente. Falla si la CA configurada no puede leerse.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	hc := &http.Client{Timeout: timeout}
	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("keymgmt: read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("keymgmt: ca file %s has no valid certificates", opts.CAFile)
		}
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.Endpoint, "/"),
		domain:  opts.Domain,
		apiKey:  opts.APIKey,
		http:    hc,
	}, nil
}

// keyRecord es la representación en el wire de una ZSK.
type keyRecord struct {
	ID             string     `json:"id"`
	Activated      bool       `json:"activated"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty"`
	CreatedAgo     int64      `json:"created_ago_seconds"`
	DeactivatedAgo int64      `json:"deactivated_ago_seconds"`
	MaxTTL         int64      `json:"max_ttl,omitempty"`
}

func (r keyRecord) toDomain() zsk.Key {
	return zsk.Key{
		ID:             r.ID,
		Activated:      r.Activated,
		DeactivatedAt:  r.DeactivatedAt,
		CreatedAgo:     r.CreatedAgo,
		DeactivatedAgo: r.DeactivatedAgo,
		MaxTTL:         r.MaxTTL,
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("keymgmt: %s: encode body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("keymgmt: %s: %w", op, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("keymgmt: %s: %w", op, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// mutate ejecuta una llamada mutadora y traduce todo lo no-2xx a *APIError.
func (c *Client) mutate(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	status, b, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, &APIError{Status: status, Op: op, Body: string(b)}
	}
	return b, nil
}

// ZSKInfo devuelve el inventario completo de ZSKs de la instalación.
func (c *Client) ZSKInfo(ctx context.Context) ([]zsk.Key, error) {
	const op = "zsk info"
	status, b, err := c.do(ctx, op, http.MethodGet, "/v1/domains/"+c.domain+"/zsk", nil)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, &APIError{Status: status, Op: op, Body: string(b)}
	}

	// Una respuesta con forma inesperada es tan fatal como no tener respuesta.
	var payload struct {
		Keys []keyRecord `json:"keys"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("keymgmt: %s: malformed response: %w", op, err)
	}
	if payload.Keys == nil {
		return nil, fmt.Errorf("keymgmt: %s: malformed response: missing keys field", op)
	}

	keys := make([]zsk.Key, 0, len(payload.Keys))
	for _, r := range payload.Keys {
		keys = append(keys, r.toDomain())
	}
	return keys, nil
}

// ActivateKey promueve la clave a autoritativa.
func (c *Client) ActivateKey(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, "activate key", http.MethodPost, "/v1/domains/"+c.domain+"/zsk/"+id+"/activate", nil)
	return err
}

// CreateKey publica una clave nueva y devuelve su ID.
func (c *Client) CreateKey(ctx context.Context, algorithm string, bits int, role string, activate bool) (string, error) {
	body := map[string]any{
		"algorithm": algorithm,
		"bits":      bits,
		"role":      role,
		"activate":  activate,
	}
	b, err := c.mutate(ctx, "create key", http.MethodPost, "/v1/domains/"+c.domain+"/zsk", body)
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return "", fmt.Errorf("keymgmt: create key: malformed response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("keymgmt: create key: malformed response: missing id")
	}
	return resp.ID, nil
}

// DeactivateKey retira la clave de servicio (queda en el bucket de desactivadas).
func (c *Client) DeactivateKey(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, "deactivate key", http.MethodPost, "/v1/domains/"+c.domain+"/zsk/"+id+"/deactivate", nil)
	return err
}

// DeleteKey elimina definitivamente una clave desactivada.
func (c *Client) DeleteKey(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, "delete key", http.MethodDelete, "/v1/domains/"+c.domain+"/zsk/"+id, nil)
	return err
}
