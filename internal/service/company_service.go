package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bluestock/company-backend/internal/completeness"
	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/reporting"
	"github.com/bluestock/company-backend/internal/repository"
	"github.com/bluestock/company-backend/internal/storage"
	"github.com/bluestock/company-backend/internal/validation"
	"github.com/bluestock/company-backend/internal/ws"
)

// CompanyStore описывает хранилище профилей компаний.
type CompanyStore interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error)
	WithinTx(ctx context.Context, fn func(tx repository.CompanyTx) error) error
}

// CompanyService управляет профилем компании и его заполненностью.
type CompanyService struct {
	companies CompanyStore
	objects   storage.ObjectStore
	calc      *completeness.Calculator
	events    EventPublisher
	reporter  reporting.Reporter
	log       *logrus.Logger

	maxUploadBytes int64
}

// CompanyResult - профиль и его текущая заполненность.
type CompanyResult struct {
	Profile *models.CompanyProfile
	Missing []string
}

// NewCompanyService создаёт сервис профилей.
func NewCompanyService(companies CompanyStore, objects storage.ObjectStore, calc *completeness.Calculator, events EventPublisher, reporter reporting.Reporter, log *logrus.Logger, maxUploadBytes int64) *CompanyService {
	if calc == nil {
		calc = completeness.MustDefault()
	}
	return &CompanyService{
		companies:      companies,
		objects:        objects,
		calc:           calc,
		events:         events,
		reporter:       reporter,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// Get возвращает профиль владельца со ссылками на соцсети.
func (s *CompanyService) Get(ctx context.Context, ownerID uuid.UUID) (*CompanyResult, error) {
	profile, err := s.companies.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.result(profile), nil
}

// Register заполняет профиль при первичной регистрации компании.
// Пустой профиль, созданный при регистрации пользователя, считается незанятым.
func (s *CompanyService) Register(ctx context.Context, ownerID uuid.UUID, patch models.CompanyPatch) (*CompanyResult, error) {
	if patch.CompanyName == nil || strings.TrimSpace(*patch.CompanyName) == "" {
		return nil, apperror.Validation("Validation failed",
			apperror.FieldError{Field: "company_name", Message: "Company name is required"})
	}

	var profile *models.CompanyProfile
	err := s.companies.WithinTx(ctx, func(tx repository.CompanyTx) error {
		current, err := tx.GetByOwnerForUpdate(ctx, ownerID)
		switch {
		case apperror.IsNotFound(err):
			current = &models.CompanyProfile{OwnerID: ownerID}
			if err := tx.Create(ctx, current); err != nil {
				return err
			}
		case err != nil:
			return err
		case current.CompanyName != nil && *current.CompanyName != "":
			return apperror.ErrCompanyExists
		}

		links, err := tx.ListSocialLinks(ctx, current.ID)
		if err != nil {
			return err
		}
		current.SocialLinks = links

		patch.ApplyTo(current)
		s.calc.Apply(current)
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		profile = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdate(profile)
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "company_id": profile.ID}).Info("Компания зарегистрирована")
	return s.result(profile), nil
}

// UpdateProfile применяет частичное обновление: переданные поля перезаписываются,
// непереданные сохраняют прежние значения. Прогресс пересчитывается в той же транзакции.
func (s *CompanyService) UpdateProfile(ctx context.Context, ownerID uuid.UUID, patch models.CompanyPatch) (*CompanyResult, error) {
	// Пустой патч ничего не меняет: отдаём текущее состояние без записи и события.
	if patch.IsEmpty() {
		return s.Get(ctx, ownerID)
	}
	return s.mutate(ctx, ownerID, func(_ repository.CompanyTx, p *models.CompanyProfile) error {
		patch.ApplyTo(p)
		return nil
	})
}

// UploadImage сохраняет логотип или баннер и записывает его URL в профиль.
func (s *CompanyService) UploadImage(ctx context.Context, ownerID uuid.UUID, kind, payload string) (*CompanyResult, string, error) {
	if kind != models.ImageKindLogo && kind != models.ImageKindBanner {
		return nil, "", apperror.Validation("Validation failed",
			apperror.FieldError{Field: "type", Message: "Image type must be logo or banner"})
	}

	data, contentType, err := storage.DecodePayload(payload, s.maxUploadBytes)
	if err != nil {
		return nil, "", imageError(err, s.maxUploadBytes)
	}
	img, err := storage.Prepare(data, contentType, kind)
	if err != nil {
		return nil, "", imageError(err, s.maxUploadBytes)
	}

	key := fmt.Sprintf("companies/%s/%s-%s%s", ownerID, kind, uuid.NewString(), img.Extension)
	url, err := s.objects.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Error("Не удалось загрузить изображение")
		s.reporter.CaptureError(ctx, err, map[string]string{"operation": "storage.put", "kind": kind})
		return nil, "", apperror.External(err, "Failed to upload image")
	}

	var patch models.CompanyPatch
	if kind == models.ImageKindLogo {
		patch.LogoURL = &url
	} else {
		patch.BannerURL = &url
	}

	result, err := s.UpdateProfile(ctx, ownerID, patch)
	if err != nil {
		// Профиль не обновлён: загруженный объект больше никому не нужен.
		if delErr := s.objects.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.WithError(delErr).WithField("key", key).Warn("Не удалось удалить осиротевшее изображение")
		}
		return nil, "", err
	}
	return result, url, nil
}

// AddSocialLink добавляет ссылку на соцсеть (или заменяет URL для той же платформы).
func (s *CompanyService) AddSocialLink(ctx context.Context, ownerID uuid.UUID, platform, profileURL string) (*models.SocialLink, *CompanyResult, error) {
	var errs validation.Errors
	platform, err := validation.NormalizePlatform(platform)
	errs.Add("platform", err)
	profileURL = strings.TrimSpace(profileURL)
	errs.Add("profile_url", validation.ValidateURL(profileURL))
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	link := &models.SocialLink{Platform: platform, ProfileURL: profileURL}
	result, err := s.mutate(ctx, ownerID, func(tx repository.CompanyTx, p *models.CompanyProfile) error {
		link.CompanyID = p.ID
		if err := tx.UpsertSocialLink(ctx, link); err != nil {
			return err
		}
		links, err := tx.ListSocialLinks(ctx, p.ID)
		if err != nil {
			return err
		}
		p.SocialLinks = links
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return link, result, nil
}

// DeleteSocialLink удаляет ссылку владельца; чужие ссылки не видны.
func (s *CompanyService) DeleteSocialLink(ctx context.Context, ownerID, linkID uuid.UUID) (*CompanyResult, error) {
	return s.mutate(ctx, ownerID, func(tx repository.CompanyTx, p *models.CompanyProfile) error {
		deleted, err := tx.DeleteSocialLink(ctx, p.ID, linkID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperror.ErrSocialLinkNotFound
		}
		links, err := tx.ListSocialLinks(ctx, p.ID)
		if err != nil {
			return err
		}
		p.SocialLinks = links
		return nil
	})
}

// mutate блокирует профиль, применяет изменение, пересчитывает прогресс
// и сохраняет всё одним UPDATE.
func (s *CompanyService) mutate(ctx context.Context, ownerID uuid.UUID, fn func(tx repository.CompanyTx, p *models.CompanyProfile) error) (*CompanyResult, error) {
	var profile *models.CompanyProfile
	err := s.companies.WithinTx(ctx, func(tx repository.CompanyTx) error {
		current, err := tx.GetByOwnerForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		links, err := tx.ListSocialLinks(ctx, current.ID)
		if err != nil {
			return err
		}
		current.SocialLinks = links

		if err := fn(tx, current); err != nil {
			return err
		}

		s.calc.Apply(current)
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		profile = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdate(profile)
	return s.result(profile), nil
}

func (s *CompanyService) publishUpdate(p *models.CompanyProfile) {
	s.events.Publish(p.OwnerID, ws.EventProfileUpdated, map[string]any{
		"company_id":     p.ID,
		"setup_progress": p.SetupProgress,
		"is_complete":    p.IsComplete,
	})
}

func (s *CompanyService) result(p *models.CompanyProfile) *CompanyResult {
	return &CompanyResult{Profile: p, Missing: s.calc.Missing(p)}
}

func imageError(err error, maxBytes int64) error {
	field := apperror.FieldError{Field: "image"}
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		field.Message = fmt.Sprintf("Image must be at most %d MB", maxBytes/(1024*1024))
	case errors.Is(err, storage.ErrUnsupportedFormat):
		field.Message = "Image must be JPEG, PNG, GIF or WebP"
	case errors.Is(err, storage.ErrInvalidImage):
		field.Message = "Image data is invalid"
	default:
		return fmt.Errorf("company service: prepare image: %w", err)
	}
	return apperror.Validation(field.Message, field)
}
