package marketing_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	marketing "cleanserve/internal/marketing/service"
	"cleanserve/internal/models"
	"cleanserve/internal/utils"
)

type Handler struct {
	MarketingService *marketing.MarketingService
	Logger           *logger.Logger
}

func NewHandler(marketingService *marketing.MarketingService, log *logger.Logger) *Handler {
	return &Handler{MarketingService: marketingService, Logger: log}
}

var (
	msgInvalidBody = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	settings, err := h.MarketingService.GetSettings()
	if err != nil {
		h.Logger.Error("MARKETING", fmt.Sprintf("GetSettings: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Marketing settings retrieved", Ar: "تم استرجاع إعدادات التسويق"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), settings))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var update models.MarketingSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}

	settings, err := h.MarketingService.UpdateSettings(update, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("MARKETING", fmt.Sprintf("UpdateSettings: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Marketing settings updated", Ar: "تم تحديث إعدادات التسويق"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), settings))
}
