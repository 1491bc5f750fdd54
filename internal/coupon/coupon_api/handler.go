package coupon_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	coupon "cleanserve/internal/coupon/service"
	"cleanserve/internal/logger"
	"cleanserve/internal/utils"
)

type Handler struct {
	CouponService *coupon.CouponService
	Logger        *logger.Logger
	validate      *validator.Validate
}

func NewHandler(couponService *coupon.CouponService, log *logger.Logger) *Handler {
	return &Handler{
		CouponService: couponService,
		Logger:        log,
		validate:      validator.New(),
	}
}

var (
	msgInvalidBody    = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError    = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
	msgCouponNotFound = utils.Message{En: "Coupon not found", Ar: "الكوبون غير موجود"}
)

// validationMessages maps coupon service errors to bilingual copy.
var validationMessages = map[error]utils.Message{
	coupon.ErrInvalidCode:     {En: "Code must be 3-50 uppercase letters, digits, _ or -", Ar: "يجب أن يتكون الرمز من 3-50 حرفاً كبيراً أو رقماً أو _ أو -"},
	coupon.ErrInvalidType:     {En: "Type must be percentage or fixed_amount", Ar: "يجب أن يكون النوع نسبة مئوية أو مبلغاً ثابتاً"},
	coupon.ErrInvalidValue:    {En: "Value must be greater than zero", Ar: "يجب أن تكون القيمة أكبر من صفر"},
	coupon.ErrInvalidWindow:   {En: "Expiry date must be after the start date", Ar: "يجب أن يكون تاريخ الانتهاء بعد تاريخ البدء"},
	coupon.ErrMissingText:     {En: "Both English and Arabic descriptions are required", Ar: "الوصف باللغتين الإنجليزية والعربية مطلوب"},
	coupon.ErrCodeTaken:       {En: "Coupon code already exists", Ar: "رمز الكوبون موجود مسبقاً"},
	coupon.ErrCouponInactive:  {En: "Coupon is not active", Ar: "الكوبون غير مفعل"},
	coupon.ErrCouponExpired:   {En: "Coupon has expired or is not yet valid", Ar: "انتهت صلاحية الكوبون أو لم يبدأ بعد"},
	coupon.ErrMinOrder:        {En: "Order amount is below the coupon minimum", Ar: "مبلغ الطلب أقل من الحد الأدنى للكوبون"},
	coupon.ErrServiceExcluded: {En: "Coupon does not apply to this service", Ar: "الكوبون لا ينطبق على هذه الخدمة"},
	coupon.ErrFirstTimeOnly:   {En: "Coupon is limited to first-time customers", Ar: "الكوبون محصور بالعملاء الجدد"},
	coupon.ErrUsageCap:        {En: "Coupon usage limit has been reached", Ar: "تم الوصول إلى حد استخدام الكوبون"},
	coupon.ErrUserUsageCap:    {En: "You have reached the usage limit for this coupon", Ar: "لقد وصلت إلى حد استخدامك لهذا الكوبون"},
	coupon.ErrRedeemBusy:      {En: "Coupon is busy, please try again", Ar: "الكوبون قيد الاستخدام، حاول مرة أخرى"},
}

func (h *Handler) writeCouponError(w http.ResponseWriter, lang, op string, err error) {
	if errors.Is(err, coupon.ErrCouponNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgCouponNotFound.Pick(lang), nil))
		return
	}
	for target, msg := range validationMessages {
		if errors.Is(err, target) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
			return
		}
	}
	h.Logger.Error("COUPON", fmt.Sprintf("%s: %v", op, err))
	utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var in coupon.CouponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}

	created, err := h.CouponService.CreateCoupon(in)
	if err != nil {
		h.writeCouponError(w, lang, "CreateCoupon", err)
		return
	}

	msg := utils.Message{En: "Coupon created", Ar: "تم إنشاء الكوبون"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), created))
}

func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	id := chi.URLParam(r, "id")

	var in coupon.CouponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}

	updated, err := h.CouponService.UpdateCoupon(id, in)
	if err != nil {
		h.writeCouponError(w, lang, "UpdateCoupon", err)
		return
	}

	msg := utils.Message{En: "Coupon updated", Ar: "تم تحديث الكوبون"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), updated))
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.CouponService.DeleteCoupon(id); err != nil {
		h.writeCouponError(w, lang, "DeleteCoupon", err)
		return
	}

	msg := utils.Message{En: "Coupon deleted", Ar: "تم حذف الكوبون"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), nil))
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	tab := r.URL.Query().Get("status")
	search := r.URL.Query().Get("search")

	coupons, err := h.CouponService.ListCoupons(tab, search)
	if err != nil {
		h.writeCouponError(w, lang, "ListCoupons", err)
		return
	}

	msg := utils.Message{En: "Coupons retrieved", Ar: "تم استرجاع الكوبونات"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":   len(coupons),
		"coupons": coupons,
	}))
}

func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	id := chi.URLParam(r, "id")

	found, err := h.CouponService.GetCoupon(id)
	if err != nil {
		h.writeCouponError(w, lang, "GetCoupon", err)
		return
	}

	msg := utils.Message{En: "Coupon retrieved", Ar: "تم استرجاع الكوبون"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), found))
}

func (h *Handler) GetUsageHistory(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	id := chi.URLParam(r, "id")

	usages, err := h.CouponService.GetUsageHistory(id)
	if err != nil {
		h.writeCouponError(w, lang, "GetUsageHistory", err)
		return
	}

	msg := utils.Message{En: "Usage history retrieved", Ar: "تم استرجاع سجل الاستخدام"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":  len(usages),
		"usages": usages,
	}))
}

type validateCouponRequest struct {
	Code        string  `json:"code" validate:"required,min=3,max=50"`
	OrderAmount float64 `json:"order_amount" validate:"required,gt=0"`
	ServiceID   string  `json:"service_id"`
	BookingID   string  `json:"booking_id"`
	Apply       bool    `json:"apply"`
}

// ValidateCoupon checks a code against an order, optionally recording the
// redemption.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	userID := auth.UserID(r.Context())

	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}

	discount, err := h.CouponService.Validate(r.Context(), userID, req.Code, req.OrderAmount, req.ServiceID, req.BookingID, req.Apply)
	if err != nil {
		h.writeCouponError(w, lang, "ValidateCoupon", err)
		return
	}

	msg := utils.Message{En: "Coupon is valid", Ar: "الكوبون صالح"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), discount))
}
