// Package secrets loads the privacy pepper from HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/crn/internal/config"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// VaultClient reads and writes the pepper secret in a KV v2 mount.
type VaultClient struct {
	client    *vault.Client
	mountPath string
	path      string
	key       string
	logger    logger.Logger
}

// NewVaultClient creates a client for cfg. The token is used as given.
func NewVaultClient(cfg *config.VaultConfig, log logger.Logger) (*VaultClient, error) {
	vc := vault.DefaultConfig()
	vc.Address = cfg.Address
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, crnerrors.ErrInternal("failed to create vault client").WithCause(err)
	}
	client.SetToken(cfg.Token)
	return &VaultClient{
		client:    client,
		mountPath: cfg.MountPath,
		path:      cfg.PepperPath,
		key:       cfg.PepperKey,
		logger:    log.WithComponent("vault"),
	}, nil
}

// Pepper reads the pepper. A missing secret or an empty value is an error: hashing
// with the wrong pepper would silently split every identity.
func (v *VaultClient) Pepper(ctx context.Context) (string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(ctx, v.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", crnerrors.ErrNotFound("vault secret", v.path)
		}
		return "", crnerrors.ErrInternal("failed to read pepper from vault").WithCause(err)
	}
	raw, ok := secret.Data[v.key]
	if !ok {
		return "", crnerrors.ErrNotFound("vault secret key", v.key)
	}
	pepper, ok := raw.(string)
	if !ok || pepper == "" {
		return "", crnerrors.ErrValidation(fmt.Sprintf("vault key %q is not a non-empty string", v.key))
	}
	v.logger.Info(ctx, "pepper loaded from vault", logger.String("path", v.path))
	return pepper, nil
}

// StorePepper writes the pepper. It refuses to overwrite an existing value.
func (v *VaultClient) StorePepper(ctx context.Context, pepper string) error {
	if pepper == "" {
		return crnerrors.ErrMissingRequiredParameter("pepper")
	}
	if _, err := v.Pepper(ctx); err == nil {
		return crnerrors.ErrConflict("a pepper is already stored at " + v.path)
	}
	if _, err := v.client.KVv2(v.mountPath).Put(ctx, v.path, map[string]interface{}{v.key: pepper}); err != nil {
		return crnerrors.ErrInternal("failed to write pepper to vault").WithCause(err)
	}
	v.logger.Info(ctx, "pepper stored in vault", logger.String("path", v.path))
	return nil
}

// ResolvePepper returns the pepper from Vault when enabled, otherwise the
// configured privacy.pepper value.
func ResolvePepper(ctx context.Context, cfg *config.Config, log logger.Logger) (string, error) {
	if !cfg.Vault.Enabled {
		return cfg.Privacy.Pepper, nil
	}
	client, err := NewVaultClient(&cfg.Vault, log)
	if err != nil {
		return "", err
	}
	return client.Pepper(ctx)
}
