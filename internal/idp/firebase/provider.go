// Package firebase implementa idp.Provider sobre Firebase Authentication
// usando el Admin SDK.
package firebase

import (
	"context"
	"errors"
	"fmt"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/inventary/manager-service/internal/idp"
)

// Config de conexión al proyecto Firebase.
type Config struct {
	ProjectID string
	// CredentialsFile es el JSON de la service account. Vacío => ADC.
	CredentialsFile string
}

// authClient es el subconjunto de *auth.Client que usa el provider.
type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// Provider es el adapter Firebase.
type Provider struct {
	client authClient
}

var _ idp.Provider = (*Provider)(nil)

// New inicializa la app Firebase y su cliente de Auth.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var appCfg *fb.Config
	if cfg.ProjectID != "" {
		appCfg = &fb.Config{ProjectID: cfg.ProjectID}
	}
	app, err := fb.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string { return "firebase" }

func (p *Provider) CreateAccount(ctx context.Context, email, initialCredential, displayName string) (string, error) {
	req := (&auth.UserToCreate{}).
		Email(email).
		Password(initialCredential).
		DisplayName(displayName)
	rec, err := p.client.CreateUser(ctx, req)
	if err != nil {
		return "", mapErr("create user", err)
	}
	return rec.UID, nil
}

func (p *Provider) SetRoleClaim(ctx context.Context, uid, role string) error {
	claims := map[string]interface{}{idp.RoleClaim: role}
	if err := p.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return mapErr("set custom claims", err)
	}
	return nil
}

func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return p.update(ctx, "set disabled", uid, (&auth.UserToUpdate{}).Disabled(disabled))
}

func (p *Provider) SetDisplayName(ctx context.Context, uid, name string) error {
	return p.update(ctx, "set display name", uid, (&auth.UserToUpdate{}).DisplayName(name))
}

func (p *Provider) SetCredential(ctx context.Context, uid, credential string) error {
	return p.update(ctx, "set password", uid, (&auth.UserToUpdate{}).Password(credential))
}

func (p *Provider) update(ctx context.Context, op, uid string, req *auth.UserToUpdate) error {
	if _, err := p.client.UpdateUser(ctx, uid, req); err != nil {
		return mapErr(op, err)
	}
	return nil
}

// mapErr traduce los códigos del SDK a los sentinels de idp.
func mapErr(op string, err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return fmt.Errorf("firebase: %s: %w", op, errors.Join(idp.ErrAccountNotFound, err))
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("firebase: %s: %w", op, errors.Join(idp.ErrAccountExists, err))
	default:
		return fmt.Errorf("firebase: %s: %w", op, err)
	}
}
