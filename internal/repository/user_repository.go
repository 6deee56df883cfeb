package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/repository/common"
)

const userColumns = `id, email, phone, password_hash, full_name, gender, email_verified, phone_verified,
	external_id, created_at, updated_at, last_login_at`

// UserTx - операции регистрации, выполняемые в одной транзакции.
type UserTx interface {
	EmailOrPhoneTaken(ctx context.Context, email, phone string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateEmptyCompany(ctx context.Context, ownerID uuid.UUID) error
}

// UserRepository отвечает за таблицу users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithinTx выполняет fn в транзакции; ошибка fn откатывает все изменения.
func (r *UserRepository) WithinTx(ctx context.Context, fn func(tx UserTx) error) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&userTx{tx: tx})
	})
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, apperror.ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return user, err
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, apperror.ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return user, err
}

// TouchLastLogin обновляет время последнего входа.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("user repository: touch last login %w", err)
	}
	return nil
}

// SetExternalID сохраняет идентификатор учётной записи у внешнего провайдера.
func (r *UserRepository) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET external_id = $2, updated_at = NOW() WHERE id = $1`, id, externalID); err != nil {
		return fmt.Errorf("user repository: set external id %w", err)
	}
	return nil
}

// SetEmailVerified помечает email пользователя подтверждённым.
func (r *UserRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("user repository: set email verified %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

type userTx struct {
	tx *sqlx.Tx
}

func (t *userTx) EmailOrPhoneTaken(ctx context.Context, email, phone string) (bool, error) {
	var taken bool
	err := t.tx.GetContext(ctx, &taken,
		`SELECT EXISTS (SELECT 1 FROM users WHERE (email = $1 OR phone = $2) AND deleted_at IS NULL)`,
		email, phone)
	if err != nil {
		return false, fmt.Errorf("user repository: check uniqueness %w", err)
	}
	return taken, nil
}

// Create вставляет пользователя; нарушение уникального индекса превращается в ALREADY_EXISTS.
func (t *userTx) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, phone, password_hash, full_name, gender)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := t.tx.QueryRowxContext(ctx, query,
		user.Email, user.Phone, user.PasswordHash, user.FullName, user.Gender,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeAlreadyExists, apperror.ErrAlreadyExists.Message)
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

func (t *userTx) CreateEmptyCompany(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO company_profiles (owner_id, setup_progress, is_complete) VALUES ($1, 0, FALSE)`,
		ownerID); err != nil {
		return fmt.Errorf("user repository: create empty company %w", err)
	}
	return nil
}
