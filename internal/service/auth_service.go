package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bluestock/company-backend/internal/identity"
	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/reporting"
	"github.com/bluestock/company-backend/internal/repository"
	"github.com/bluestock/company-backend/internal/validation"
)

// UserStore описывает зависимости AuthService от слоя хранилища.
type UserStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.UserTx) error) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	users      UserStore
	tokens     *TokenManager
	identity   identity.Provider
	reporter   reporting.Reporter
	log        *logrus.Logger
	bcryptCost int
	dummyHash  []byte
}

// AuthOption настраивает AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost меняет стоимость bcrypt (в тестах используется bcrypt.MinCost).
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Gender   string
	Phone    string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User  *models.User
	Token *IssuedToken
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserStore, tokens *TokenManager, provider identity.Provider, reporter reporting.Reporter, log *logrus.Logger, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		users:      users,
		tokens:     tokens,
		identity:   provider,
		reporter:   reporter,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Хеш для сравнения при неизвестном email: время ответа не выдаёт наличие аккаунта.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register создаёт пользователя и пустой профиль компании в одной транзакции.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var errs validation.Errors
	email, err := validation.NormalizeEmail(in.Email)
	errs.Add("email", err)
	errs.Add("password", validation.ValidatePassword(in.Password))
	fullName, err := validation.NormalizeFullName(in.FullName)
	errs.Add("full_name", err)
	gender, err := validation.NormalizeGender(in.Gender)
	errs.Add("gender", err)
	phone, err := validation.NormalizePhone(in.Phone)
	errs.Add("mobile_no", err)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Email:        email,
		Phone:        phone,
		PasswordHash: string(passHash),
		FullName:     fullName,
		Gender:       gender,
	}

	err = s.users.WithinTx(ctx, func(tx repository.UserTx) error {
		taken, err := tx.EmailOrPhoneTaken(ctx, email, phone)
		if err != nil {
			return err
		}
		if taken {
			return apperror.ErrAlreadyExists
		}
		// Уникальный индекс ловит гонку двух регистраций, прошедших проверку выше.
		if err := tx.Create(ctx, user); err != nil {
			return err
		}
		return tx.CreateEmptyCompany(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	s.linkExternalIdentity(ctx, user, in.Password)

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("Пользователь зарегистрирован")
	return &AuthResult{User: user, Token: token}, nil
}

// linkExternalIdentity создаёт учётную запись у внешнего провайдера.
// Ошибка не влияет на результат регистрации: она только логируется и уходит в Sentry.
func (s *AuthService) linkExternalIdentity(ctx context.Context, user *models.User, password string) {
	externalID, err := s.identity.CreateAccount(ctx, identity.Account{
		Email:       user.Email,
		Phone:       user.Phone,
		Password:    password,
		DisplayName: user.FullName,
	})
	if errors.Is(err, identity.ErrDisabled) {
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Не удалось создать внешнюю учётную запись")
		s.reporter.CaptureError(ctx, err, map[string]string{"operation": "identity.create_account"})
		return
	}

	if err := s.users.SetExternalID(ctx, user.ID, externalID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Не удалось сохранить external_id")
		s.reporter.CaptureError(ctx, err, map[string]string{"operation": "users.set_external_id"})
		return
	}
	user.ExternalID = &externalID
}

// Login проверяет учётные данные и возвращает токен.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := validation.NormalizeEmail(email)
	if err != nil {
		return nil, apperror.Validation("Validation failed", apperror.FieldError{Field: "email", Message: err.Error()})
	}
	if password == "" {
		return nil, apperror.Validation("Validation failed", apperror.FieldError{Field: "password", Message: "Password is required"})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperror.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	// Ошибку обновления last_login_at логируем, но не прерываем вход
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Me возвращает текущего пользователя.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// VerifyEmail сверяет статус email у внешнего провайдера и сохраняет его локально.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return user, nil
	}

	verified, err := s.identity.EmailVerified(ctx, user.Email)
	if errors.Is(err, identity.ErrDisabled) {
		return nil, apperror.ErrIdentityDisabled
	}
	if err != nil {
		s.reporter.CaptureError(ctx, err, map[string]string{"operation": "identity.email_verified"})
		return nil, apperror.External(err, "Email verification failed")
	}
	if !verified {
		return nil, apperror.Validation("Email is not verified yet")
	}

	if err := s.users.SetEmailVerified(ctx, userID); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	return user, nil
}
