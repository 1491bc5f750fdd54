package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	booking "cleanserve/internal/booking/service"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	"cleanserve/internal/utils"
)

type Handler struct {
	BookingService *booking.BookingService
	Logger         *logger.Logger
	validate       *validator.Validate
}

func NewHandler(bookingService *booking.BookingService, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		Logger:         log,
		validate:       validator.New(),
	}
}

var (
	msgInvalidBody     = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError     = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
	msgBookingNotFound = utils.Message{En: "Booking not found", Ar: "الحجز غير موجود"}
	msgForbidden       = utils.Message{En: "You do not have access to this booking", Ar: "ليس لديك صلاحية الوصول إلى هذا الحجز"}
)

type updateStatusRequest struct {
	Status models.BookingStatus `json:"status" validate:"required"`
}

type createQuotationRequest struct {
	BookingID   string  `json:"booking_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"omitempty,max=1000"`
}

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

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	customerID := auth.UserID(r.Context())

	var req booking.BookingInput
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	b, err := h.BookingService.CreateBooking(customerID, req)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidSchedule) {
			msg := utils.Message{En: "Scheduled date and time are required", Ar: "تاريخ ووقت الموعد مطلوبان"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
			return
		}
		h.Logger.Error("BOOKING", fmt.Sprintf("CreateBooking: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Booking created", Ar: "تم إنشاء الحجز"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), b))
}

func (h *Handler) GetCustomerBookings(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	bookings, err := h.BookingService.GetCustomerBookings(auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("BOOKING", fmt.Sprintf("GetCustomerBookings: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Bookings retrieved", Ar: "تم استرجاع الحجوزات"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":    len(bookings),
		"bookings": bookings,
	}))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	bookingID := chi.URLParam(r, "id")

	b, err := h.BookingService.GetBooking(bookingID)
	if err != nil {
		h.writeBookingError(w, lang, "GetBooking", err)
		return
	}

	userID := auth.UserID(r.Context())
	role := auth.Role(r.Context())
	if b.CustomerID != userID && b.TechnicianID != userID && role != models.RoleAdmin {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Booking retrieved", Ar: "تم استرجاع الحجز"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), b))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	bookingID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	b, err := h.BookingService.UpdateStatus(bookingID, req.Status, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		if errors.Is(err, booking.ErrBadTransition) {
			msg := utils.Message{En: "This status change is not allowed", Ar: "تغيير الحالة هذا غير مسموح"}
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(msg.Pick(lang), map[string]interface{}{
				"requested_status": req.Status,
			}))
			return
		}
		h.writeBookingError(w, lang, "UpdateStatus", err)
		return
	}

	msg := utils.Message{En: "Booking status updated", Ar: "تم تحديث حالة الحجز"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), b))
}

// GetTechnicianCalendar lists the calling technician's bookings. The
// optional date query param narrows the list to a single day.
func (h *Handler) GetTechnicianCalendar(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	date := r.URL.Query().Get("date")

	bookings, err := h.BookingService.GetTechnicianCalendar(auth.UserID(r.Context()), date)
	if err != nil {
		h.Logger.Error("BOOKING", fmt.Sprintf("GetTechnicianCalendar: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Calendar retrieved", Ar: "تم استرجاع الجدول"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":    len(bookings),
		"date":     date,
		"bookings": bookings,
	}))
}

// ---------------- QUOTATIONS ----------------

func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var req createQuotationRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	quotation, err := h.BookingService.CreateQuotation(auth.UserID(r.Context()), req.BookingID, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidAmount):
			msg := utils.Message{En: "Quotation amount must be greater than zero", Ar: "يجب أن يكون مبلغ عرض السعر أكبر من صفر"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, booking.ErrNotQuotable):
			msg := utils.Message{En: "Booking is not awaiting a quotation", Ar: "الحجز لا ينتظر عرض سعر"}
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.writeBookingError(w, lang, "CreateQuotation", err)
		}
		return
	}

	msg := utils.Message{En: "Quotation submitted", Ar: "تم إرسال عرض السعر"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), quotation))
}

func (h *Handler) GetTechnicianQuotations(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	quotations, err := h.BookingService.GetTechnicianQuotations(auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("BOOKING", fmt.Sprintf("GetTechnicianQuotations: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Quotations retrieved", Ar: "تم استرجاع عروض الأسعار"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":      len(quotations),
		"quotations": quotations,
	}))
}

func (h *Handler) writeBookingError(w http.ResponseWriter, lang, op string, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgBookingNotFound.Pick(lang), nil))
	case errors.Is(err, booking.ErrForbidden):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(lang), nil))
	default:
		h.Logger.Error("BOOKING", fmt.Sprintf("%s: %v", op, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
	}
}
