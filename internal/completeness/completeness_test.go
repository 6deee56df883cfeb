package completeness

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluestock/company-backend/internal/models"
)

func s(v string) *string { return &v }

func fullProfile() *models.CompanyProfile {
	founded := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.CompanyProfile{
		LogoURL:          s("https://cdn/logo.png"),
		BannerURL:        s("https://cdn/banner.png"),
		CompanyName:      s("Acme"),
		AboutUs:          s("We build things"),
		OrganizationType: s("Private"),
		IndustryType:     s("Fintech"),
		TeamSize:         s("11-50"),
		FoundedDate:      &founded,
		CompanyWebsite:   s("https://acme.io"),
		CompanyVision:    s("Everywhere"),
		MapLocation:      s("Pune"),
		ContactPhone:     s("+15551234567"),
		ContactEmail:     s("hello@acme.io"),
	}
}

func TestPercent_RoundHalfUp(t *testing.T) {
	assert.Equal(t, 46, Percent(6, 13))
	assert.Equal(t, 13, Percent(1, 8))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 0, Percent(0, 13))
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 100, Percent(13, 13))
}

func TestScore_EmptyAndFull(t *testing.T) {
	calc := MustDefault()

	score, _ := calc.Score(&models.CompanyProfile{})
	assert.Equal(t, 0, score)

	score, filled := calc.Score(fullProfile())
	assert.Equal(t, 100, score)
	assert.Equal(t, 13, filled)
}

func TestScore_SixOfThirteen(t *testing.T) {
	calc := MustDefault()
	p := &models.CompanyProfile{
		LogoURL:      s("a"),
		BannerURL:    s("b"),
		CompanyName:  s("c"),
		AboutUs:      s("d"),
		IndustryType: s("e"),
		TeamSize:     s("f"),
	}

	score, filled := calc.Score(p)

	assert.Equal(t, 6, filled)
	assert.Equal(t, 46, score)
}

func TestScore_EmptyStringIsNotFilled(t *testing.T) {
	calc := MustDefault()
	score, filled := calc.Score(&models.CompanyProfile{CompanyName: s("")})

	assert.Equal(t, 0, filled)
	assert.Equal(t, 0, score)
}

func TestScore_Monotonic(t *testing.T) {
	calc := MustDefault()
	full := fullProfile()
	p := &models.CompanyProfile{}

	steps := []func(){
		func() { p.LogoURL = full.LogoURL },
		func() { p.BannerURL = full.BannerURL },
		func() { p.CompanyName = full.CompanyName },
		func() { p.AboutUs = full.AboutUs },
		func() { p.OrganizationType = full.OrganizationType },
		func() { p.IndustryType = full.IndustryType },
		func() { p.TeamSize = full.TeamSize },
		func() { p.FoundedDate = full.FoundedDate },
		func() { p.CompanyWebsite = full.CompanyWebsite },
		func() { p.CompanyVision = full.CompanyVision },
		func() { p.MapLocation = full.MapLocation },
		func() { p.ContactPhone = full.ContactPhone },
		func() { p.ContactEmail = full.ContactEmail },
	}

	prev, _ := calc.Score(p)
	for _, step := range steps {
		step()
		next, _ := calc.Score(p)
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
	assert.Equal(t, 100, prev)
}

func TestApply_SetsCompleteFlagTogether(t *testing.T) {
	calc := MustDefault()

	p := fullProfile()
	calc.Apply(p)
	assert.Equal(t, 100, p.SetupProgress)
	assert.True(t, p.IsComplete)

	p.ContactEmail = nil
	calc.Apply(p)
	assert.Equal(t, 92, p.SetupProgress)
	assert.False(t, p.IsComplete)
}

func TestNew_CustomFieldSet(t *testing.T) {
	calc, err := New([]string{"company_name", "city", "state", "country", "postal_code", "address", "social_links", "founded_date"})
	require.NoError(t, err)

	p := &models.CompanyProfile{CompanyName: s("Acme")}
	score, _ := calc.Score(p)
	assert.Equal(t, 13, score)

	p.SocialLinks = []models.SocialLink{{ID: uuid.New(), Platform: "linkedin"}}
	score, _ = calc.Score(p)
	assert.Equal(t, 25, score)
}

func TestNew_RejectsUnknownAndDuplicate(t *testing.T) {
	_, err := New([]string{"company_name", "revenue"})
	assert.Error(t, err)

	_, err = New([]string{"city", "City"})
	assert.Error(t, err)
}

func TestMissing(t *testing.T) {
	calc, err := New([]string{"company_name", "city"})
	require.NoError(t, err)

	assert.Equal(t, []string{"city"}, calc.Missing(&models.CompanyProfile{CompanyName: s("Acme")}))
}
