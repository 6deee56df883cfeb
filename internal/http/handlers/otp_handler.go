package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bluestock/company-backend/internal/http/handlers/common"
	"github.com/bluestock/company-backend/internal/interface/http/response"
)

// OTPHandler обслуживает подтверждение номера телефона.
type OTPHandler struct {
	otp OTPUsecase
}

// NewOTPHandler создаёт хэндлер.
func NewOTPHandler(otp OTPUsecase) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type sendOTPRequest struct {
	MobileNo string `json:"mobile_no"`
}

type verifyOTPRequest struct {
	MobileNo string `json:"mobile_no" binding:"required"`
	OTPCode  string `json:"otp_code" binding:"required"`
}

// Send обрабатывает POST /auth/otp/send и POST /auth/verify-mobile.
// Тело запроса необязательно: по умолчанию код уходит на номер из профиля.
func (h *OTPHandler) Send(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req sendOTPRequest
	if c.Request.ContentLength > 0 && !common.BindJSON(c, &req) {
		return
	}

	result, err := h.otp.Send(c.Request.Context(), userID, req.MobileNo)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := gin.H{
		"mobile_no":  result.Phone,
		"expires_at": result.ExpiresAt,
	}
	if result.Code != "" {
		data["otp"] = result.Code
	}
	response.Success(c, "OTP sent successfully", data)
}

// Verify обрабатывает POST /auth/otp/verify. Токен необязателен.
func (h *OTPHandler) Verify(c *gin.Context) {
	var req verifyOTPRequest
	if !common.BindJSON(c, &req) {
		return
	}

	if err := h.otp.Verify(c.Request.Context(), common.OptionalUserID(c), req.MobileNo, req.OTPCode); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Mobile number verified successfully", gin.H{"phone_verified": true})
}
