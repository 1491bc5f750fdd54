package user_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	user "cleanserve/internal/user/service"
	"cleanserve/internal/utils"
)

type Handler struct {
	UserService *user.UserService
	Logger      *logger.Logger
	validate    *validator.Validate
}

func NewHandler(userService *user.UserService, log *logger.Logger) *Handler {
	return &Handler{
		UserService: userService,
		Logger:      log,
		validate:    validator.New(),
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Password string `json:"password" validate:"required,min=8"`
	Language string `json:"language" validate:"omitempty,oneof=en ar"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

var (
	msgInvalidBody = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
)

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, lang string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), fields))
		return false
	}
	return true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)

	var req registerRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	result, err := h.UserService.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			msg := utils.Message{En: "Email is already registered", Ar: "البريد الإلكتروني مسجل مسبقاً"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, user.ErrWeakPassword):
			msg := utils.Message{En: "Password must be at least 8 characters", Ar: "يجب أن تكون كلمة المرور 8 أحرف على الأقل"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("Register: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Registration successful, verification code sent", Ar: "تم التسجيل بنجاح، تم إرسال رمز التحقق"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), map[string]string{
		"user_id": result.UserID,
	}))
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)

	var req verifyOTPRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	token, u, err := h.UserService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCode), errors.Is(err, user.ErrUserNotFound):
			msg := utils.Message{En: "Invalid or expired verification code", Ar: "رمز التحقق غير صالح أو منتهي الصلاحية"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("VerifyOTP: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Account verified", Ar: "تم التحقق من الحساب"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"token": token,
		"user":  u,
	}))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)

	var req loginRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	token, u, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			msg := utils.Message{En: "Invalid email or password", Ar: "البريد الإلكتروني أو كلمة المرور غير صحيحة"}
			utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, user.ErrNotVerified):
			msg := utils.Message{En: "Account is not verified", Ar: "الحساب غير مُحقق"}
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("Login: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Login successful", Ar: "تم تسجيل الدخول بنجاح"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"token": token,
		"user":  u,
	}))
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)

	var req forgotPasswordRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	if _, err := h.UserService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("ForgotPassword: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	// Same response whether or not the account exists.
	msg := utils.Message{En: "If the email is registered, reset instructions were sent", Ar: "إذا كان البريد مسجلاً، فقد تم إرسال تعليمات إعادة التعيين"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), nil))
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)

	var req resetPasswordRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	err := h.UserService.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCode), errors.Is(err, user.ErrUserNotFound):
			msg := utils.Message{En: "Invalid or expired reset token", Ar: "رمز إعادة التعيين غير صالح أو منتهي الصلاحية"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, user.ErrWeakPassword):
			msg := utils.Message{En: "Password must be at least 8 characters", Ar: "يجب أن تكون كلمة المرور 8 أحرف على الأقل"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("ResetPassword: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Password has been reset", Ar: "تمت إعادة تعيين كلمة المرور"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), nil))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	userID := auth.UserID(r.Context())

	var req changePasswordRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	err := h.UserService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			msg := utils.Message{En: "Current password is incorrect", Ar: "كلمة المرور الحالية غير صحيحة"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, user.ErrWeakPassword):
			msg := utils.Message{En: "Password must be at least 8 characters", Ar: "يجب أن تكون كلمة المرور 8 أحرف على الأقل"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("ChangePassword: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Password changed", Ar: "تم تغيير كلمة المرور"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), nil))
}
