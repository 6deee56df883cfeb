package handlers

import (
	"strings"

	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/validation"
)

// companyRequest - тело PUT /company. Отсутствующее поле не меняется,
// пустая строка очищает значение.
type companyRequest struct {
	CompanyName      *string `json:"company_name"`
	AboutUs          *string `json:"about_us"`
	OrganizationType *string `json:"organization_type"`
	IndustryType     *string `json:"industry_type"`
	TeamSize         *string `json:"team_size"`
	FoundedDate      *string `json:"founded_date"`
	CompanyWebsite   *string `json:"company_website"`
	CompanyVision    *string `json:"company_vision"`
	MapLocation      *string `json:"map_location"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	Country          *string `json:"country"`
	PostalCode       *string `json:"postal_code"`
	ContactPhone     *string `json:"contact_phone"`
	ContactEmail     *string `json:"contact_email"`
}

// toPatch проверяет поля и приводит их к каноничному виду.
func (r companyRequest) toPatch() (models.CompanyPatch, error) {
	var (
		errs  validation.Errors
		patch models.CompanyPatch
	)

	patch.CompanyName = lengthField(&errs, "company_name", "Company name", r.CompanyName, validation.MinCompanyNameLength, validation.MaxCompanyNameLength)
	patch.AboutUs = longText(&errs, "about_us", "About us", r.AboutUs)
	patch.CompanyVision = longText(&errs, "company_vision", "Company vision", r.CompanyVision)
	patch.OrganizationType = lengthField(&errs, "organization_type", "Organization type", r.OrganizationType, 0, validation.MaxShortTextLength)
	patch.IndustryType = lengthField(&errs, "industry_type", "Industry type", r.IndustryType, 0, validation.MaxShortTextLength)
	patch.TeamSize = lengthField(&errs, "team_size", "Team size", r.TeamSize, 0, validation.MaxShortTextLength)
	patch.MapLocation = lengthField(&errs, "map_location", "Map location", r.MapLocation, 0, validation.MaxURLLength)
	patch.Address = lengthField(&errs, "address", "Address", r.Address, 0, validation.MaxShortTextLength)
	patch.City = lengthField(&errs, "city", "City", r.City, validation.MinPlaceLength, validation.MaxPlaceLength)
	patch.State = lengthField(&errs, "state", "State", r.State, validation.MinPlaceLength, validation.MaxPlaceLength)
	patch.Country = lengthField(&errs, "country", "Country", r.Country, validation.MinPlaceLength, validation.MaxPlaceLength)
	patch.PostalCode = lengthField(&errs, "postal_code", "Postal code", r.PostalCode, validation.MinPostalCodeLength, validation.MaxPostalCodeLength)

	if r.CompanyWebsite != nil {
		v := strings.TrimSpace(*r.CompanyWebsite)
		if v != "" {
			errs.Add("company_website", validation.ValidateURL(v))
		}
		patch.CompanyWebsite = &v
	}

	if r.FoundedDate != nil {
		if v := strings.TrimSpace(*r.FoundedDate); v == "" {
			patch.ClearFoundedDate = true
		} else if d, err := validation.ParseDate(v); err != nil {
			errs.Add("founded_date", err)
		} else {
			patch.FoundedDate = &d
		}
	}

	if r.ContactPhone != nil {
		v := strings.TrimSpace(*r.ContactPhone)
		if v != "" {
			phone, err := validation.NormalizePhone(v)
			errs.Add("contact_phone", err)
			v = phone
		}
		patch.ContactPhone = &v
	}

	if r.ContactEmail != nil {
		v := strings.TrimSpace(*r.ContactEmail)
		if v != "" {
			email, err := validation.NormalizeEmail(v)
			errs.Add("contact_email", err)
			v = email
		}
		patch.ContactEmail = &v
	}

	if err := errs.Err(); err != nil {
		return models.CompanyPatch{}, err
	}
	return patch, nil
}

// lengthField обрезает пробелы и проверяет длину непустого значения.
func lengthField(errs *validation.Errors, field, label string, raw *string, min, max int) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v != "" {
		errs.Add(field, validation.ValidateLength(label, v, min, max))
	}
	return &v
}

// longText вырезает HTML и ограничивает длину описания.
func longText(errs *validation.Errors, field, label string, raw *string) *string {
	if raw == nil {
		return nil
	}
	v := validation.SanitizeText(*raw)
	errs.Add(field, validation.ValidateLength(label, v, 0, validation.MaxDescriptionLength))
	return &v
}
