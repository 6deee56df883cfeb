// Package completeness считает процент заполненности профиля компании.
//
// Набор полей задаётся конфигурацией; расчёт не обращается ни к БД, ни к сети.
package completeness

import (
	"fmt"
	"strings"

	"github.com/bluestock/company-backend/internal/models"
)

// Field проверяет, заполнено ли одно поле профиля.
type Field struct {
	Name   string
	Filled func(p *models.CompanyProfile) bool
}

// DefaultFields - поля, учитываемые по умолчанию, в фиксированном порядке.
var DefaultFields = []string{
	"logo_url",
	"banner_url",
	"company_name",
	"about_us",
	"organization_type",
	"industry_type",
	"team_size",
	"founded_date",
	"company_website",
	"company_vision",
	"map_location",
	"contact_phone",
	"contact_email",
}

func str(get func(p *models.CompanyProfile) *string) func(p *models.CompanyProfile) bool {
	return func(p *models.CompanyProfile) bool {
		v := get(p)
		return v != nil && *v != ""
	}
}

var registry = map[string]func(p *models.CompanyProfile) bool{
	"logo_url":          str(func(p *models.CompanyProfile) *string { return p.LogoURL }),
	"banner_url":        str(func(p *models.CompanyProfile) *string { return p.BannerURL }),
	"company_name":      str(func(p *models.CompanyProfile) *string { return p.CompanyName }),
	"about_us":          str(func(p *models.CompanyProfile) *string { return p.AboutUs }),
	"organization_type": str(func(p *models.CompanyProfile) *string { return p.OrganizationType }),
	"industry_type":     str(func(p *models.CompanyProfile) *string { return p.IndustryType }),
	"team_size":         str(func(p *models.CompanyProfile) *string { return p.TeamSize }),
	"company_website":   str(func(p *models.CompanyProfile) *string { return p.CompanyWebsite }),
	"company_vision":    str(func(p *models.CompanyProfile) *string { return p.CompanyVision }),
	"map_location":      str(func(p *models.CompanyProfile) *string { return p.MapLocation }),
	"address":           str(func(p *models.CompanyProfile) *string { return p.Address }),
	"city":              str(func(p *models.CompanyProfile) *string { return p.City }),
	"state":             str(func(p *models.CompanyProfile) *string { return p.State }),
	"country":           str(func(p *models.CompanyProfile) *string { return p.Country }),
	"postal_code":       str(func(p *models.CompanyProfile) *string { return p.PostalCode }),
	"contact_phone":     str(func(p *models.CompanyProfile) *string { return p.ContactPhone }),
	"contact_email":     str(func(p *models.CompanyProfile) *string { return p.ContactEmail }),
	"founded_date": func(p *models.CompanyProfile) bool {
		return p.FoundedDate != nil
	},
	"social_links": func(p *models.CompanyProfile) bool {
		return len(p.SocialLinks) > 0
	},
}

// Calculator оценивает профиль по упорядоченному набору полей.
type Calculator struct {
	fields []Field
}

// New собирает калькулятор из имён полей. Пустой список означает DefaultFields.
func New(names []string) (*Calculator, error) {
	if len(names) == 0 {
		names = DefaultFields
	}

	seen := make(map[string]struct{}, len(names))
	fields := make([]Field, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		filled, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("completeness: unknown field %q", raw)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("completeness: duplicate field %q", raw)
		}
		seen[name] = struct{}{}
		fields = append(fields, Field{Name: name, Filled: filled})
	}
	return &Calculator{fields: fields}, nil
}

// MustDefault возвращает калькулятор с полями по умолчанию.
func MustDefault() *Calculator {
	c, err := New(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Fields возвращает имена учитываемых полей.
func (c *Calculator) Fields() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Name
	}
	return out
}

// Score возвращает процент заполненности 0..100 и число заполненных полей.
func (c *Calculator) Score(p *models.CompanyProfile) (score int, filled int) {
	if p == nil {
		return 0, 0
	}
	for _, f := range c.fields {
		if f.Filled(p) {
			filled++
		}
	}
	return Percent(filled, len(c.fields)), filled
}

// Apply пересчитывает setup_progress и is_complete профиля.
func (c *Calculator) Apply(p *models.CompanyProfile) {
	score, _ := c.Score(p)
	p.SetupProgress = score
	p.IsComplete = score == 100
}

// Missing перечисляет незаполненные поля в порядке конфигурации.
func (c *Calculator) Missing(p *models.CompanyProfile) []string {
	missing := make([]string, 0)
	for _, f := range c.fields {
		if p == nil || !f.Filled(p) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Percent округляет filled/total*100 половиной вверх, в целых числах.
func Percent(filled, total int) int {
	if total <= 0 || filled <= 0 {
		return 0
	}
	if filled >= total {
		return 100
	}
	return (filled*200 + total) / (2 * total)
}
