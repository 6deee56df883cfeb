// Package reporting отправляет проглоченные ошибки и паники в Sentry.
package reporting

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/bluestock/company-backend/internal/logger"
)

// Reporter фиксирует события, которые не влияют на ответ клиенту.
type Reporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	Recover(value interface{})
	Flush(timeout time.Duration) bool
}

// Sentry - Reporter поверх sentry-go. Без DSN все вызовы ничего не делают.
type Sentry struct {
	enabled bool
}

// NewSentry инициализирует клиент Sentry. Пустой dsn отключает отправку.
func NewSentry(dsn, environment, release string) *Sentry {
	if dsn == "" {
		logger.L().Info("SENTRY_DSN не задан, Sentry отключён")
		return &Sentry{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.L().WithError(err).Warn("Не удалось инициализировать Sentry")
		return &Sentry{}
	}

	logger.L().Info("Sentry инициализирован")
	return &Sentry{enabled: true}
}

func (s *Sentry) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if !s.enabled || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

func (s *Sentry) Recover(value interface{}) {
	if !s.enabled || value == nil {
		return
	}
	sentry.CurrentHub().Recover(value)
}

func (s *Sentry) Flush(timeout time.Duration) bool {
	if !s.enabled {
		return true
	}
	return sentry.Flush(timeout)
}

// Nop ничего не отправляет; используется в тестах.
type Nop struct{}

func (Nop) CaptureError(context.Context, error, map[string]string) {}
func (Nop) Recover(interface{})                                    {}
func (Nop) Flush(time.Duration) bool                               { return true }
