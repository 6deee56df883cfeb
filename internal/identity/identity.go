// Package identity дублирует учётные записи во внешнем провайдере (Firebase Auth).
//
// Режим выбирается конфигурацией: disabled или firebase. Локальная БД остаётся
// источником истины, внешний вызов выполняется по принципу best-effort.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluestock/company-backend/internal/config"
)

// ErrDisabled возвращается всеми операциями провайдера в режиме disabled.
var ErrDisabled = errors.New("identity: provider disabled")

// Account - данные для создания внешней учётной записи.
type Account struct {
	Email       string
	Phone       string
	Password    string
	DisplayName string
}

// Provider - внешний провайдер идентичности.
type Provider interface {
	Mode() config.IdentityMode
	CreateAccount(ctx context.Context, acc Account) (externalID string, err error)
	// EmailVerified сообщает, подтвердил ли пользователь email у провайдера.
	EmailVerified(ctx context.Context, email string) (bool, error)
}

// Disabled - провайдер для демо-режима: ничего не создаёт.
type Disabled struct{}

func (Disabled) Mode() config.IdentityMode { return config.IdentityDisabled }

func (Disabled) CreateAccount(context.Context, Account) (string, error) {
	return "", ErrDisabled
}

func (Disabled) EmailVerified(context.Context, string) (bool, error) {
	return false, ErrDisabled
}

// New создаёт провайдер по режиму из конфигурации.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.IdentityMode {
	case config.IdentityDisabled, "":
		return Disabled{}, nil
	case config.IdentityFirebase:
		return NewFirebase(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	default:
		return nil, fmt.Errorf("identity: unknown mode %q", cfg.IdentityMode)
	}
}
