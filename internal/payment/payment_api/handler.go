package payment_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	payment "cleanserve/internal/payment/service"
	"cleanserve/internal/utils"
)

type Handler struct {
	PaymentService *payment.PaymentService
	Logger         *logger.Logger
	validate       *validator.Validate
}

func NewHandler(paymentService *payment.PaymentService, log *logger.Logger) *Handler {
	return &Handler{
		PaymentService: paymentService,
		Logger:         log,
		validate:       validator.New(),
	}
}

var (
	msgInvalidBody     = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError     = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
	msgPaymentNotFound = utils.Message{En: "Payment not found", Ar: "عملية الدفع غير موجودة"}
	msgForbidden       = utils.Message{En: "You do not have access to this payment", Ar: "ليس لديك صلاحية الوصول إلى هذه العملية"}
)

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var req models.CreatePaymentRequest
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

	resp, err := h.PaymentService.CreatePayment(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrUnknownGateway):
			msg := utils.Message{En: "Gateway must be moyasar or tabby", Ar: "يجب أن تكون بوابة الدفع مويسر أو تابي"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, payment.ErrBookingNotFound):
			msg := utils.Message{En: "Booking not found", Ar: "الحجز غير موجود"}
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, payment.ErrForbidden):
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(lang), nil))
		case errors.Is(err, payment.ErrAlreadyPaid):
			msg := utils.Message{En: "Booking is already paid", Ar: "الحجز مدفوع بالفعل"}
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, payment.ErrNothingToPay):
			msg := utils.Message{En: "Booking has no payable amount", Ar: "لا يوجد مبلغ مستحق للحجز"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, payment.ErrGatewayDeclined):
			msg := utils.Message{En: "The gateway declined this payment", Ar: "رفضت بوابة الدفع هذه العملية"}
			utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse(msg.Pick(lang), nil))
		default:
			h.Logger.Error("PAYMENT", fmt.Sprintf("CreatePayment: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Payment initiated", Ar: "تم بدء عملية الدفع"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), resp))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	paymentID := chi.URLParam(r, "id")

	p, err := h.PaymentService.GetPayment(paymentID, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		h.writePaymentError(w, lang, "GetPayment", err)
		return
	}

	msg := utils.Message{En: "Payment retrieved", Ar: "تم استرجاع عملية الدفع"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), p))
}

// callbackRef pulls the gateway payment ID from the query string or, as
// a fallback, from a JSON body with an "id" field.
func callbackRef(r *http.Request) string {
	if id := r.URL.Query().Get("id"); id != "" {
		return id
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return body.ID
	}
	return ""
}

// MoyasarCallback is hit by Moyasar after checkout. The payment state
// is verified against the gateway before anything is marked paid.
func (h *Handler) MoyasarCallback(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, "moyasar", h.PaymentService.ConfirmMoyasar)
}

func (h *Handler) TabbyCallback(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, "tabby", h.PaymentService.ConfirmTabby)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request, gateway string, confirm func(ctx context.Context, ref string) (*models.Payment, error)) {
	lang := auth.RequestLanguage(r)

	ref := callbackRef(r)
	if ref == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), "id"))
		return
	}

	p, err := confirm(r.Context(), ref)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgPaymentNotFound.Pick(lang), nil))
			return
		}
		h.Logger.Error("PAYMENT", fmt.Sprintf("%s callback for %s: %v", gateway, ref, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Payment status updated", Ar: "تم تحديث حالة الدفع"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"payment_id": p.PaymentID,
		"status":     p.Status,
	}))
}

func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	paymentID := chi.URLParam(r, "id")

	p, err := h.PaymentService.Refund(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrNotRefundable) {
			msg := utils.Message{En: "Only paid payments can be refunded", Ar: "يمكن استرداد المدفوعات المكتملة فقط"}
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(msg.Pick(lang), nil))
			return
		}
		h.writePaymentError(w, lang, "RefundPayment", err)
		return
	}

	msg := utils.Message{En: "Payment refunded", Ar: "تم استرداد المبلغ"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), p))
}

func (h *Handler) writePaymentError(w http.ResponseWriter, lang, op string, err error) {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgPaymentNotFound.Pick(lang), nil))
	case errors.Is(err, payment.ErrForbidden):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(lang), nil))
	default:
		h.Logger.Error("PAYMENT", fmt.Sprintf("%s: %v", op, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
	}
}
