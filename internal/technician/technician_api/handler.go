package technician_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	technician "cleanserve/internal/technician/service"
	"cleanserve/internal/utils"
)

type Handler struct {
	TechnicianService *technician.TechnicianService
	Logger            *logger.Logger
	validate          *validator.Validate
}

func NewHandler(technicianService *technician.TechnicianService, log *logger.Logger) *Handler {
	return &Handler{
		TechnicianService: technicianService,
		Logger:            log,
		validate:          validator.New(),
	}
}

var (
	msgInvalidBody = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	profile, err := h.TechnicianService.GetProfile(auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("TECHNICIAN", fmt.Sprintf("GetProfile: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Profile retrieved", Ar: "تم استرجاع الملف الشخصي"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), profile))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var req technician.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), fields))
		return
	}

	profile, err := h.TechnicianService.UpdateProfile(auth.UserID(r.Context()), req)
	if err != nil {
		switch {
		case errors.Is(err, technician.ErrInvalidAvailability):
			msg := utils.Message{En: "Availability must be one of available, busy, on_job, off_duty", Ar: "يجب أن تكون الحالة إحدى: متاح، مشغول، في مهمة، خارج الدوام"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, technician.ErrInvalidRadius), errors.Is(err, technician.ErrInvalidLimit), errors.Is(err, technician.ErrInvalidHours):
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		default:
			h.Logger.Error("TECHNICIAN", fmt.Sprintf("UpdateProfile: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Profile updated", Ar: "تم تحديث الملف الشخصي"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), profile))
}
