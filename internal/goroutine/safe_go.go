package goroutine

import (
	"context"
	"runtime/debug"
)

// Logger интерфейс для логирования ошибок (совместим с *logrus.Logger).
type Logger interface {
	Errorf(format string, args ...interface{})
}

// PanicReporter отправляет перехваченную панику во внешний трекер.
type PanicReporter interface {
	Recover(value interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger   Logger
	reporter PanicReporter
}

// NewRecoveryHandler создает новый обработчик; reporter может быть nil.
func NewRecoveryHandler(logger Logger, reporter PanicReporter) *RecoveryHandler {
	return &RecoveryHandler{logger: logger, reporter: reporter}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover()
		fn(ctx)
	}()
}

// Run выполняет fn в текущей горутине, перехватывая panic.
func (rh *RecoveryHandler) Run(fn func()) {
	defer rh.recover()
	fn()
}

func (rh *RecoveryHandler) recover() {
	if r := recover(); r != nil {
		rh.logger.Errorf("Panic in goroutine: %v\nStack trace:\n%s", r, debug.Stack())
		if rh.reporter != nil {
			rh.reporter.Recover(r)
		}
	}
}
