package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPValidator consulta GET {base}/validate con el token como bearer.
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPValidator crea el cliente del servicio de validación.
// Si client es nil se usa uno con el timeout dado.
func NewHTTPValidator(baseURL string, client *http.Client, timeout time.Duration) *HTTPValidator {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPValidator{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (v *HTTPValidator) Validate(ctx context.Context, token string) (Decision, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/validate", nil)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Decision{}, fmt.Errorf("%w: status %d", ErrValidatorUnavailable, resp.StatusCode)
	}

	var d Decision
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&d); err != nil {
		return Decision{}, fmt.Errorf("authz: decode validation response: %w", err)
	}
	return d, nil
}

// Ping verifica que el servicio de validación responda (readiness).
// Cualquier respuesta HTTP cuenta como alcanzable.
func (v *HTTPValidator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/validate", nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrValidatorUnavailable, resp.StatusCode)
	}
	return nil
}
