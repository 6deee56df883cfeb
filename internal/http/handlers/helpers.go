package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/service"
)

// AuthUsecase - операции аутентификации, которые нужны HTTP слою.
type AuthUsecase interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// OTPUsecase - выдача и проверка кодов подтверждения телефона.
type OTPUsecase interface {
	Send(ctx context.Context, userID uuid.UUID, phone string) (*service.SendResult, error)
	Verify(ctx context.Context, userID *uuid.UUID, phone, code string) error
}

// CompanyUsecase - операции над профилем компании.
type CompanyUsecase interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*service.CompanyResult, error)
	Register(ctx context.Context, ownerID uuid.UUID, patch models.CompanyPatch) (*service.CompanyResult, error)
	UpdateProfile(ctx context.Context, ownerID uuid.UUID, patch models.CompanyPatch) (*service.CompanyResult, error)
	UploadImage(ctx context.Context, ownerID uuid.UUID, kind, payload string) (*service.CompanyResult, string, error)
	AddSocialLink(ctx context.Context, ownerID uuid.UUID, platform, profileURL string) (*models.SocialLink, *service.CompanyResult, error)
	DeleteSocialLink(ctx context.Context, ownerID, linkID uuid.UUID) (*service.CompanyResult, error)
}

var (
	_ AuthUsecase    = (*service.AuthService)(nil)
	_ OTPUsecase     = (*service.OTPService)(nil)
	_ CompanyUsecase = (*service.CompanyService)(nil)
)
