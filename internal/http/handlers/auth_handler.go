package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bluestock/company-backend/internal/http/handlers/common"
	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Gender   string `json:"gender"`
	MobileNo string `json:"mobile_no" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Gender:   req.Gender,
		Phone:    req.MobileNo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User registered successfully. Please verify mobile OTP.", gin.H{
		"user_id":    result.User.ID,
		"token":      result.Token.Token,
		"expires_at": result.Token.ExpiresAt,
	})
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Login successful", gin.H{
		"user_id":        result.User.ID,
		"email":          result.User.Email,
		"full_name":      result.User.FullName,
		"phone_verified": result.User.PhoneVerified,
		"email_verified": result.User.EmailVerified,
		"token":          result.Token.Token,
		"expires_at":     result.Token.ExpiresAt,
	})
}

// Me обрабатывает GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", user.Public())
}

// VerifyEmail обрабатывает POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Email verified successfully", user.Public())
}
