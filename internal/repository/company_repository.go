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

const companyColumns = `id, owner_id, company_name, about_us, organization_type, industry_type, team_size,
	founded_date, company_website, company_vision, map_location, address, city, state, country,
	postal_code, contact_phone, contact_email, logo_url, banner_url, setup_progress, is_complete,
	created_at, updated_at`

const socialLinkColumns = `id, company_id, platform, profile_url, created_at`

// CompanyTx - операции над профилем компании в рамках одной транзакции.
type CompanyTx interface {
	GetByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error)
	Create(ctx context.Context, profile *models.CompanyProfile) error
	// Update записывает все бизнес-поля вместе с setup_progress и is_complete одним UPDATE.
	Update(ctx context.Context, profile *models.CompanyProfile) error
	ListSocialLinks(ctx context.Context, companyID uuid.UUID) ([]models.SocialLink, error)
	UpsertSocialLink(ctx context.Context, link *models.SocialLink) error
	DeleteSocialLink(ctx context.Context, companyID, linkID uuid.UUID) (bool, error)
}

// CompanyRepository отвечает за таблицы company_profiles и company_social_links.
type CompanyRepository struct {
	db *sqlx.DB
}

func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) WithinTx(ctx context.Context, fn func(tx CompanyTx) error) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&companyTx{tx: tx})
	})
}

// GetByOwner возвращает профиль владельца вместе со ссылками на соцсети.
func (r *CompanyRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	profile, err := common.GetOne[models.CompanyProfile](ctx, r.db, apperror.ErrCompanyNotFound,
		`SELECT `+companyColumns+` FROM company_profiles WHERE owner_id = $1`, ownerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("company repository: get by owner %w", err)
	}

	links, err := listSocialLinks(ctx, r.db, profile.ID)
	if err != nil {
		return nil, err
	}
	profile.SocialLinks = links
	return profile, nil
}

func listSocialLinks(ctx context.Context, q sqlx.QueryerContext, companyID uuid.UUID) ([]models.SocialLink, error) {
	links := make([]models.SocialLink, 0)
	if err := sqlx.SelectContext(ctx, q, &links,
		`SELECT `+socialLinkColumns+` FROM company_social_links WHERE company_id = $1 ORDER BY created_at`,
		companyID); err != nil {
		return nil, fmt.Errorf("company repository: list social links %w", err)
	}
	return links, nil
}

type companyTx struct {
	tx *sqlx.Tx
}

func (t *companyTx) GetByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	profile, err := common.GetOne[models.CompanyProfile](ctx, t.tx, apperror.ErrCompanyNotFound,
		`SELECT `+companyColumns+` FROM company_profiles WHERE owner_id = $1 FOR UPDATE`, ownerID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("company repository: lock by owner %w", err)
	}
	return profile, err
}

func (t *companyTx) Create(ctx context.Context, profile *models.CompanyProfile) error {
	query := `
		INSERT INTO company_profiles (owner_id, setup_progress, is_complete)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := t.tx.QueryRowxContext(ctx, query, profile.OwnerID, profile.SetupProgress, profile.IsComplete).
		Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeAlreadyExists, apperror.ErrCompanyExists.Message)
		}
		return fmt.Errorf("company repository: create %w", err)
	}
	return nil
}

func (t *companyTx) Update(ctx context.Context, profile *models.CompanyProfile) error {
	query := `
		UPDATE company_profiles SET
			company_name = :company_name,
			about_us = :about_us,
			organization_type = :organization_type,
			industry_type = :industry_type,
			team_size = :team_size,
			founded_date = :founded_date,
			company_website = :company_website,
			company_vision = :company_vision,
			map_location = :map_location,
			address = :address,
			city = :city,
			state = :state,
			country = :country,
			postal_code = :postal_code,
			contact_phone = :contact_phone,
			contact_email = :contact_email,
			logo_url = :logo_url,
			banner_url = :banner_url,
			setup_progress = :setup_progress,
			is_complete = :is_complete,
			updated_at = NOW()
		WHERE id = :id
	`
	res, err := t.tx.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("company repository: update %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrCompanyNotFound
	}
	return nil
}

func (t *companyTx) ListSocialLinks(ctx context.Context, companyID uuid.UUID) ([]models.SocialLink, error) {
	return listSocialLinks(ctx, t.tx, companyID)
}

// UpsertSocialLink добавляет ссылку или заменяет URL для уже существующей платформы.
func (t *companyTx) UpsertSocialLink(ctx context.Context, link *models.SocialLink) error {
	query := `
		INSERT INTO company_social_links (company_id, platform, profile_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, platform) DO UPDATE SET profile_url = EXCLUDED.profile_url
		RETURNING id, created_at
	`
	if err := t.tx.QueryRowxContext(ctx, query, link.CompanyID, link.Platform, link.ProfileURL).
		Scan(&link.ID, &link.CreatedAt); err != nil {
		return fmt.Errorf("company repository: upsert social link %w", err)
	}
	return nil
}

func (t *companyTx) DeleteSocialLink(ctx context.Context, companyID, linkID uuid.UUID) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM company_social_links WHERE id = $1 AND company_id = $2`, linkID, companyID)
	if err != nil {
		return false, fmt.Errorf("company repository: delete social link %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
