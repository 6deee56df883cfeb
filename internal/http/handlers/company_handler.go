package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bluestock/company-backend/internal/http/handlers/common"
	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/service"
)

// CompanyHandler обслуживает профиль компании текущего пользователя.
type CompanyHandler struct {
	companies CompanyUsecase
}

// NewCompanyHandler создаёт хэндлер.
func NewCompanyHandler(companies CompanyUsecase) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

type uploadRequest struct {
	ImageType string `json:"image_type"`
	ImageData string `json:"image_data" binding:"required"`
}

type socialLinkRequest struct {
	Platform   string `json:"platform" binding:"required"`
	ProfileURL string `json:"profile_url" binding:"required"`
}

// companyView - профиль вместе с прогрессом заполнения.
type companyView struct {
	*models.CompanyProfile
	MissingFields []string `json:"missing_fields"`
}

func viewOf(res *service.CompanyResult) companyView {
	return companyView{CompanyProfile: res.Profile, MissingFields: res.Missing}
}

// Get обрабатывает GET /company.
func (h *CompanyHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	res, err := h.companies.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", viewOf(res))
}

// Register обрабатывает POST /company/register.
func (h *CompanyHandler) Register(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req companyRequest
	if !common.BindJSON(c, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.companies.Register(c.Request.Context(), userID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Company registered successfully", viewOf(res))
}

// Update обрабатывает PUT /company и PUT /company/profile.
func (h *CompanyHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req companyRequest
	if !common.BindJSON(c, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.companies.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Company updated successfully", viewOf(res))
}

// UploadLogo обрабатывает POST /company/upload-logo.
func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	h.upload(c, models.ImageKindLogo)
}

// UploadBanner обрабатывает POST /company/upload-banner.
func (h *CompanyHandler) UploadBanner(c *gin.Context) {
	h.upload(c, models.ImageKindBanner)
}

// Upload обрабатывает POST /company/upload; тип берётся из тела.
func (h *CompanyHandler) Upload(c *gin.Context) {
	h.upload(c, "")
}

func (h *CompanyHandler) upload(c *gin.Context, kind string) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req uploadRequest
	if !common.BindJSON(c, &req) {
		return
	}
	if kind == "" {
		kind = req.ImageType
	}

	res, url, err := h.companies.UploadImage(c.Request.Context(), userID, kind, req.ImageData)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, kind+" uploaded successfully", gin.H{
		"url":            url,
		"setup_progress": res.Profile.SetupProgress,
		"is_complete":    res.Profile.IsComplete,
	})
}

// AddSocialLink обрабатывает POST /company/social.
func (h *CompanyHandler) AddSocialLink(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req socialLinkRequest
	if !common.BindJSON(c, &req) {
		return
	}

	link, res, err := h.companies.AddSocialLink(c.Request.Context(), userID, req.Platform, req.ProfileURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Social media link added successfully", gin.H{
		"link":           link,
		"setup_progress": res.Profile.SetupProgress,
	})
}

// DeleteSocialLink обрабатывает DELETE /company/social/:id.
func (h *CompanyHandler) DeleteSocialLink(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	linkID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.companies.DeleteSocialLink(c.Request.Context(), userID, linkID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Social media link deleted successfully", gin.H{
		"setup_progress": res.Profile.SetupProgress,
	})
}
