package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyProfile описывает профиль компании; у пользователя не больше одного.
type CompanyProfile struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OwnerID          uuid.UUID  `db:"owner_id" json:"owner_id"`
	CompanyName      *string    `db:"company_name" json:"company_name"`
	AboutUs          *string    `db:"about_us" json:"about_us"`
	OrganizationType *string    `db:"organization_type" json:"organization_type"`
	IndustryType     *string    `db:"industry_type" json:"industry_type"`
	TeamSize         *string    `db:"team_size" json:"team_size"`
	FoundedDate      *time.Time `db:"founded_date" json:"founded_date"`
	CompanyWebsite   *string    `db:"company_website" json:"company_website"`
	CompanyVision    *string    `db:"company_vision" json:"company_vision"`
	MapLocation      *string    `db:"map_location" json:"map_location"`
	Address          *string    `db:"address" json:"address"`
	City             *string    `db:"city" json:"city"`
	State            *string    `db:"state" json:"state"`
	Country          *string    `db:"country" json:"country"`
	PostalCode       *string    `db:"postal_code" json:"postal_code"`
	ContactPhone     *string    `db:"contact_phone" json:"contact_phone"`
	ContactEmail     *string    `db:"contact_email" json:"contact_email"`
	LogoURL          *string    `db:"logo_url" json:"logo_url"`
	BannerURL        *string    `db:"banner_url" json:"banner_url"`
	SetupProgress    int        `db:"setup_progress" json:"setup_progress"`
	IsComplete       bool       `db:"is_complete" json:"is_complete"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	SocialLinks []SocialLink `db:"-" json:"social_links"`
}

// SocialLink - ссылка на профиль компании в соцсети.
type SocialLink struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CompanyID  uuid.UUID `db:"company_id" json:"company_id"`
	Platform   string    `db:"platform" json:"platform"`
	ProfileURL string    `db:"profile_url" json:"profile_url"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CompanyPatch - частичное обновление профиля. nil означает «не передано».
type CompanyPatch struct {
	CompanyName      *string
	AboutUs          *string
	OrganizationType *string
	IndustryType     *string
	TeamSize         *string
	FoundedDate      *time.Time
	// ClearFoundedDate сбрасывает дату основания; FoundedDate при этом игнорируется.
	ClearFoundedDate bool
	CompanyWebsite   *string
	CompanyVision    *string
	MapLocation      *string
	Address          *string
	City             *string
	State            *string
	Country          *string
	PostalCode       *string
	ContactPhone     *string
	ContactEmail     *string
	LogoURL          *string
	BannerURL        *string
}

// ApplyTo переносит переданные поля в профиль; непереданные остаются прежними.
func (p CompanyPatch) ApplyTo(c *CompanyProfile) {
	coalesce(&c.CompanyName, p.CompanyName)
	coalesce(&c.AboutUs, p.AboutUs)
	coalesce(&c.OrganizationType, p.OrganizationType)
	coalesce(&c.IndustryType, p.IndustryType)
	coalesce(&c.TeamSize, p.TeamSize)
	if p.ClearFoundedDate {
		c.FoundedDate = nil
	} else {
		coalesce(&c.FoundedDate, p.FoundedDate)
	}
	coalesce(&c.CompanyWebsite, p.CompanyWebsite)
	coalesce(&c.CompanyVision, p.CompanyVision)
	coalesce(&c.MapLocation, p.MapLocation)
	coalesce(&c.Address, p.Address)
	coalesce(&c.City, p.City)
	coalesce(&c.State, p.State)
	coalesce(&c.Country, p.Country)
	coalesce(&c.PostalCode, p.PostalCode)
	coalesce(&c.ContactPhone, p.ContactPhone)
	coalesce(&c.ContactEmail, p.ContactEmail)
	coalesce(&c.LogoURL, p.LogoURL)
	coalesce(&c.BannerURL, p.BannerURL)
}

// IsEmpty сообщает, что в патче нет ни одного поля.
func (p CompanyPatch) IsEmpty() bool {
	return p == (CompanyPatch{})
}

func coalesce[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
