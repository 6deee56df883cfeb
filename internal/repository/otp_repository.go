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

const otpColumns = `id, user_id, phone, code, expires_at, verified, attempts, created_at`

// OTPTx - операции проверки кода внутри одной транзакции.
type OTPTx interface {
	// LatestForUpdate блокирует самую свежую запись для телефона (и пользователя, если он известен).
	LatestForUpdate(ctx context.Context, lookup models.OTPLookup) (*models.OTPVerification, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	MarkUserPhoneVerified(ctx context.Context, userID uuid.UUID) (bool, error)
	MarkPhoneVerifiedByPhone(ctx context.Context, phone string) (bool, error)
}

type OTPRepository struct {
	db *sqlx.DB
}

func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create сохраняет новую выдачу кода.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTPVerification) error {
	query := `
		INSERT INTO otp_verifications (user_id, phone, code, expires_at, verified, attempts)
		VALUES ($1, $2, $3, $4, FALSE, 0)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, otp.UserID, otp.Phone, otp.Code, otp.ExpiresAt).
		Scan(&otp.ID, &otp.CreatedAt); err != nil {
		return fmt.Errorf("otp repository: create %w", err)
	}
	otp.Verified = false
	otp.Attempts = 0
	return nil
}

func (r *OTPRepository) WithinTx(ctx context.Context, fn func(tx OTPTx) error) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&otpTx{tx: tx})
	})
}

type otpTx struct {
	tx *sqlx.Tx
}

func (t *otpTx) LatestForUpdate(ctx context.Context, lookup models.OTPLookup) (*models.OTPVerification, error) {
	var (
		otp *models.OTPVerification
		err error
	)
	if lookup.UserID != nil {
		otp, err = common.GetOne[models.OTPVerification](ctx, t.tx, apperror.ErrOTPNotFound,
			`SELECT `+otpColumns+` FROM otp_verifications
			WHERE user_id = $1 AND phone = $2
			ORDER BY created_at DESC LIMIT 1 FOR UPDATE`, *lookup.UserID, lookup.Phone)
	} else {
		otp, err = common.GetOne[models.OTPVerification](ctx, t.tx, apperror.ErrOTPNotFound,
			`SELECT `+otpColumns+` FROM otp_verifications
			WHERE phone = $1
			ORDER BY created_at DESC LIMIT 1 FOR UPDATE`, lookup.Phone)
	}
	if err != nil && apperror.CodeOf(err) != apperror.ErrCodeOTPNotFound {
		return nil, fmt.Errorf("otp repository: latest %w", err)
	}
	return otp, err
}

func (t *otpTx) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE otp_verifications SET attempts = attempts + 1 WHERE id = $1 AND verified = FALSE`, id); err != nil {
		return fmt.Errorf("otp repository: increment attempts %w", err)
	}
	return nil
}

func (t *otpTx) MarkVerified(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE otp_verifications SET verified = TRUE WHERE id = $1 AND verified = FALSE`, id); err != nil {
		return fmt.Errorf("otp repository: mark verified %w", err)
	}
	return nil
}

func (t *otpTx) MarkUserPhoneVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users SET phone_verified = TRUE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, userID)
	if err != nil {
		return false, fmt.Errorf("otp repository: mark user phone verified %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (t *otpTx) MarkPhoneVerifiedByPhone(ctx context.Context, phone string) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users SET phone_verified = TRUE, updated_at = NOW() WHERE phone = $1 AND deleted_at IS NULL`, phone)
	if err != nil {
		return false, fmt.Errorf("otp repository: mark phone verified %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
