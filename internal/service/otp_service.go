package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bluestock/company-backend/internal/messaging"
	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/reporting"
	"github.com/bluestock/company-backend/internal/repository"
	"github.com/bluestock/company-backend/internal/validation"
	"github.com/bluestock/company-backend/internal/ws"
)

// OTPStore описывает хранилище выдач OTP.
type OTPStore interface {
	Create(ctx context.Context, otp *models.OTPVerification) error
	WithinTx(ctx context.Context, fn func(tx repository.OTPTx) error) error
}

// EventPublisher отправляет событие всем подключениям пользователя.
type EventPublisher interface {
	Publish(userID uuid.UUID, event string, data any)
}

// OTPConfig задаёт параметры выдачи кодов.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
	// ReturnCode возвращает код в ответе (только для демо-окружений).
	ReturnCode bool
}

// OTPService выдаёт и проверяет одноразовые коды для подтверждения телефона.
type OTPService struct {
	otps       OTPStore
	users      UserStore
	dispatcher messaging.Dispatcher
	events     EventPublisher
	reporter   reporting.Reporter
	log        *logrus.Logger
	cfg        OTPConfig

	now      func() time.Time
	generate func() (string, error)
}

// SendResult - результат выдачи кода.
type SendResult struct {
	Phone     string
	ExpiresAt time.Time
	// Code заполняется только при включённом ReturnCode.
	Code string
}

// NewOTPService создаёт сервис OTP.
func NewOTPService(otps OTPStore, users UserStore, dispatcher messaging.Dispatcher, events EventPublisher, reporter reporting.Reporter, log *logrus.Logger, cfg OTPConfig) *OTPService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &OTPService{
		otps:       otps,
		users:      users,
		dispatcher: dispatcher,
		events:     events,
		reporter:   reporter,
		log:        log,
		cfg:        cfg,
		now:        time.Now,
		generate:   generateCode,
	}
}

// generateCode возвращает равномерно случайное число 000000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Send выдаёт новый код на зарегистрированный номер пользователя.
// Если номер передан в запросе, он должен совпадать с зарегистрированным.
func (s *OTPService) Send(ctx context.Context, userID uuid.UUID, phone string) (*SendResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	target := user.Phone
	if phone != "" {
		normalized, err := validation.NormalizePhone(phone)
		if err != nil {
			return nil, apperror.Validation("Validation failed", apperror.FieldError{Field: "mobile_no", Message: err.Error()})
		}
		if normalized != user.Phone {
			return nil, apperror.Validation("Mobile number does not match the registered number",
				apperror.FieldError{Field: "mobile_no", Message: "Mobile number does not match the registered number"})
		}
		target = normalized
	}

	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("otp service: генерация кода: %w", err)
	}

	uid := user.ID
	otp := &models.OTPVerification{
		UserID:    &uid,
		Phone:     target,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}

	msg := messaging.OTPMessage{Phone: target, Code: code, ExpiresAt: otp.ExpiresAt}
	if err := s.dispatcher.SendOTP(ctx, msg); err != nil {
		s.log.WithError(err).WithField("phone", messaging.MaskPhone(target)).Warn("otp service: не удалось отправить код")
		s.reporter.CaptureError(ctx, err, map[string]string{"operation": "otp.dispatch"})
	}

	result := &SendResult{Phone: target, ExpiresAt: otp.ExpiresAt}
	if s.cfg.ReturnCode {
		result.Code = code
	}
	return result, nil
}

// Verify проверяет код. Неверный код увеличивает счётчик попыток,
// и это изменение фиксируется даже при отказе.
func (s *OTPService) Verify(ctx context.Context, userID *uuid.UUID, phone, code string) error {
	var errs validation.Errors
	normalized, err := validation.NormalizePhone(phone)
	errs.Add("mobile_no", err)
	errs.Add("otp", validation.ValidateOTPCode(code))
	if err := errs.Err(); err != nil {
		return err
	}

	var (
		outcome error
		owner   *uuid.UUID
	)
	err = s.otps.WithinTx(ctx, func(tx repository.OTPTx) error {
		otp, err := tx.LatestForUpdate(ctx, models.OTPLookup{UserID: userID, Phone: normalized})
		if err != nil {
			return err
		}

		switch {
		case otp.Verified:
			return apperror.ErrOTPAlreadyVerified
		case s.now().After(otp.ExpiresAt):
			return apperror.ErrOTPExpired
		case otp.Attempts >= s.cfg.MaxAttempts:
			return apperror.ErrTooManyAttempts
		}

		if otp.Code != code {
			if err := tx.IncrementAttempts(ctx, otp.ID); err != nil {
				return err
			}
			outcome = apperror.ErrOTPInvalid
			return nil
		}

		if err := tx.MarkVerified(ctx, otp.ID); err != nil {
			return err
		}

		owner = userID
		if owner == nil {
			owner = otp.UserID
		}
		if owner != nil {
			ok, err := tx.MarkUserPhoneVerified(ctx, *owner)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		if _, err := tx.MarkPhoneVerifiedByPhone(ctx, normalized); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if !isOTPOutcome(err) {
			s.log.WithError(err).Error("otp service: ошибка проверки кода")
		}
		return err
	}
	if outcome != nil {
		return outcome
	}

	if owner != nil {
		s.events.Publish(*owner, ws.EventPhoneVerified, map[string]any{
			"phone":          normalized,
			"phone_verified": true,
		})
	}
	s.log.WithField("phone", messaging.MaskPhone(normalized)).Info("Телефон подтверждён")
	return nil
}

func isOTPOutcome(err error) bool {
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeOTPNotFound, apperror.ErrCodeOTPAlreadyVerified,
		apperror.ErrCodeOTPExpired, apperror.ErrCodeTooManyAttempts:
		return true
	}
	return errors.Is(err, context.Canceled)
}
