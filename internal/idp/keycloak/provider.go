// Package keycloak implementa idp.Provider sobre la Admin REST API de Keycloak.
// El token de administración se obtiene con client credentials (oauth2) y el
// rol se guarda como atributo "role" del usuario, mapeado a claim por el realm.
package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/inventary/manager-service/internal/idp"
)

// Config del realm administrado.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Provider es el adapter Keycloak.
type Provider struct {
	adminURL string
	http     *http.Client
}

var _ idp.Provider = (*Provider)(nil)

// New arma un cliente HTTP autenticado con client credentials contra el realm.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" || cfg.Realm == "" || cfg.ClientID == "" {
		return nil, errors.New("keycloak: base_url, realm and client_id are required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect/token",
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// El http.Client base fija el timeout tanto del token como de la Admin API.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	client := cc.Client(ctx)
	client.Timeout = timeout

	return &Provider{
		adminURL: base + "/admin/realms/" + url.PathEscape(cfg.Realm),
		http:     client,
	}, nil
}

func (p *Provider) Name() string { return "keycloak" }

type credentialRep struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type userRep struct {
	ID          string              `json:"id,omitempty"`
	Username    string              `json:"username,omitempty"`
	Email       string              `json:"email,omitempty"`
	FirstName   string              `json:"firstName,omitempty"`
	LastName    string              `json:"lastName,omitempty"`
	Enabled     *bool               `json:"enabled,omitempty"`
	Attributes  map[string][]string `json:"attributes,omitempty"`
	Credentials []credentialRep     `json:"credentials,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

func splitName(displayName string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(displayName), " ")
	return first, strings.TrimSpace(last)
}

func (p *Provider) CreateAccount(ctx context.Context, email, initialCredential, displayName string) (string, error) {
	first, last := splitName(displayName)
	body := userRep{
		Username:    email,
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Enabled:     boolPtr(true),
		Attributes:  map[string][]string{"displayName": {displayName}},
		Credentials: []credentialRep{{Type: "password", Value: initialCredential}},
	}
	resp, err := p.do(ctx, http.MethodPost, "/users", body)
	if err != nil {
		return "", fmt.Errorf("keycloak: create user: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("keycloak: create user: %w", err)
	}

	// Keycloak responde 201 con Location: .../users/{id}
	loc := resp.Header.Get("Location")
	uid := path.Base(loc)
	if loc == "" || uid == "." || uid == "/" {
		return "", errors.New("keycloak: create user: missing Location header")
	}
	return uid, nil
}

func (p *Provider) SetRoleClaim(ctx context.Context, uid, role string) error {
	return p.patchUser(ctx, "set role", uid, func(u *userRep) {
		if u.Attributes == nil {
			u.Attributes = map[string][]string{}
		}
		u.Attributes[idp.RoleClaim] = []string{role}
	})
}

func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return p.patchUser(ctx, "set enabled", uid, func(u *userRep) {
		u.Enabled = boolPtr(!disabled)
	})
}

func (p *Provider) SetDisplayName(ctx context.Context, uid, name string) error {
	return p.patchUser(ctx, "set display name", uid, func(u *userRep) {
		u.FirstName, u.LastName = splitName(name)
		if u.Attributes == nil {
			u.Attributes = map[string][]string{}
		}
		u.Attributes["displayName"] = []string{name}
	})
}

func (p *Provider) SetCredential(ctx context.Context, uid, credential string) error {
	resp, err := p.do(ctx, http.MethodPut, "/users/"+url.PathEscape(uid)+"/reset-password",
		credentialRep{Type: "password", Value: credential})
	if err != nil {
		return fmt.Errorf("keycloak: reset password: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("keycloak: reset password: %w", err)
	}
	return nil
}

// patchUser hace GET + merge + PUT: el PUT de Keycloak reemplaza attributes completos.
func (p *Provider) patchUser(ctx context.Context, op, uid string, mutate func(*userRep)) error {
	userPath := "/users/" + url.PathEscape(uid)

	resp, err := p.do(ctx, http.MethodGet, userPath, nil)
	if err != nil {
		return fmt.Errorf("keycloak: %s: %w", op, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("keycloak: %s: %w", op, err)
	}
	var u userRep
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return fmt.Errorf("keycloak: %s: decode user: %w", op, err)
	}

	mutate(&u)
	u.Credentials = nil

	put, err := p.do(ctx, http.MethodPut, userPath, u)
	if err != nil {
		return fmt.Errorf("keycloak: %s: %w", op, err)
	}
	defer put.Body.Close()
	if err := checkStatus(put); err != nil {
		return fmt.Errorf("keycloak: %s: %w", op, err)
	}
	return nil
}

func (p *Provider) do(ctx context.Context, method, rel string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.adminURL+rel, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return p.http.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return idp.ErrAccountNotFound
	case http.StatusConflict:
		return idp.ErrAccountExists
	default:
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
