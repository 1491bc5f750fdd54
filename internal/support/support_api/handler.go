package support_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	support "cleanserve/internal/support/service"
	"cleanserve/internal/utils"
)

type Handler struct {
	SupportService *support.SupportService
	Logger         *logger.Logger
	validate       *validator.Validate
}

func NewHandler(supportService *support.SupportService, log *logger.Logger) *Handler {
	return &Handler{
		SupportService: supportService,
		Logger:         log,
		validate:       validator.New(),
	}
}

var (
	msgInvalidBody    = utils.Message{En: "Invalid request body", Ar: "نص الطلب غير صالح"}
	msgServerError    = utils.Message{En: "Something went wrong, please try again later", Ar: "حدث خطأ ما، يرجى المحاولة لاحقاً"}
	msgTicketNotFound = utils.Message{En: "Ticket not found", Ar: "التذكرة غير موجودة"}
	msgForbidden      = utils.Message{En: "You do not have access to this ticket", Ar: "ليس لديك صلاحية الوصول إلى هذه التذكرة"}
)

type createTicketRequest struct {
	Subject   string                `json:"subject" validate:"required,min=3,max=200"`
	SubjectAr string                `json:"subject_ar" validate:"omitempty,max=200"`
	Message   string                `json:"message" validate:"required,min=1"`
	Priority  models.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type sendMessageRequest struct {
	TicketID    string   `json:"ticket_id" validate:"required"`
	Message     string   `json:"message" validate:"required,min=1"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10"`
}

type assignTicketRequest struct {
	AssignedTo string `json:"assigned_to"`
}

type updateStatusRequest struct {
	Status models.TicketStatus `json:"status" validate:"required"`
}

// ticketListItem is a ticket row with the subject localized for the caller.
type ticketListItem struct {
	ID        string                `json:"id"`
	Subject   string                `json:"subject"`
	Status    models.TicketStatus   `json:"status"`
	Priority  models.TicketPriority `json:"priority"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func toListItem(t models.SupportTicket, lang string) ticketListItem {
	return ticketListItem{
		ID:        t.ID,
		Subject:   t.LocalizedSubject(lang),
		Status:    t.Status,
		Priority:  t.Priority,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
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

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	userID := auth.UserID(r.Context())

	var req createTicketRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	ticket, message, err := h.SupportService.CreateTicket(userID, req.Subject, req.SubjectAr, req.Message, req.Priority)
	if err != nil {
		if errors.Is(err, support.ErrInvalidPriority) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), "priority"))
			return
		}
		h.Logger.Error("SUPPORT", fmt.Sprintf("CreateTicket: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Support ticket created", Ar: "تم إنشاء تذكرة الدعم"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"ticket_id":  ticket.ID,
		"subject":    ticket.LocalizedSubject(lang),
		"status":     ticket.Status,
		"priority":   ticket.Priority,
		"message_id": message.ID,
	}))
}

func (h *Handler) GetUserTickets(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	userID := auth.UserID(r.Context())

	tickets, err := h.SupportService.GetUserTickets(userID)
	if err != nil {
		h.Logger.Error("SUPPORT", fmt.Sprintf("GetUserTickets: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	items := make([]ticketListItem, len(tickets))
	for i, t := range tickets {
		items[i] = toListItem(t, lang)
	}

	msg := utils.Message{En: "Tickets retrieved", Ar: "تم استرجاع التذاكر"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":   len(items),
		"tickets": items,
	}))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	ticketID := chi.URLParam(r, "id")

	detail, err := h.SupportService.GetTicket(ticketID, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		h.writeTicketError(w, lang, "GetTicket", err)
		return
	}

	msg := utils.Message{En: "Ticket retrieved", Ar: "تم استرجاع التذكرة"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), detail))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())

	var req sendMessageRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	message, err := h.SupportService.SendMessage(req.TicketID, auth.UserID(r.Context()), auth.Role(r.Context()), req.Message, req.Attachments)
	if err != nil {
		h.writeTicketError(w, lang, "SendMessage", err)
		return
	}

	msg := utils.Message{En: "Message sent", Ar: "تم إرسال الرسالة"}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(msg.Pick(lang), message))
}

func (h *Handler) GetTicketMessages(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	ticketID := chi.URLParam(r, "id")

	messages, err := h.SupportService.GetTicketMessages(ticketID, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		h.writeTicketError(w, lang, "GetTicketMessages", err)
		return
	}

	msg := utils.Message{En: "Messages retrieved", Ar: "تم استرجاع الرسائل"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":    len(messages),
		"messages": messages,
	}))
}

// GetFAQs is the one public support endpoint.
func (h *Handler) GetFAQs(w http.ResponseWriter, r *http.Request) {
	lang := auth.RequestLanguage(r)
	category := r.URL.Query().Get("category")

	result, err := h.SupportService.GetFAQs(category, lang)
	if err != nil {
		h.Logger.Error("SUPPORT", fmt.Sprintf("GetFAQs: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "FAQs retrieved", Ar: "تم استرجاع الأسئلة الشائعة"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), result))
}

// ---------------- ADMIN ----------------

func (h *Handler) GetAllTickets(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	status := models.TicketStatus(r.URL.Query().Get("status"))
	priority := models.TicketPriority(r.URL.Query().Get("priority"))

	tickets, err := h.SupportService.GetAllTickets(status, priority)
	if err != nil {
		if errors.Is(err, support.ErrInvalidStatus) || errors.Is(err, support.ErrInvalidPriority) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
			return
		}
		h.Logger.Error("SUPPORT", fmt.Sprintf("GetAllTickets: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		return
	}

	msg := utils.Message{En: "Tickets retrieved", Ar: "تم استرجاع التذاكر"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), map[string]interface{}{
		"count":   len(tickets),
		"tickets": tickets,
	}))
}

func (h *Handler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	ticketID := chi.URLParam(r, "id")

	var req assignTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msgInvalidBody.Pick(lang), err.Error()))
		return
	}

	ticket, err := h.SupportService.AssignTicket(ticketID, req.AssignedTo, auth.UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, support.ErrAssigneeMissing), errors.Is(err, support.ErrAssigneeRole):
			msg := utils.Message{En: "Assignee must be an admin or support user", Ar: "يجب أن يكون المكلف مشرفاً أو موظف دعم"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, support.ErrTicketNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgTicketNotFound.Pick(lang), nil))
		default:
			h.Logger.Error("SUPPORT", fmt.Sprintf("AssignTicket: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Ticket assigned", Ar: "تم تعيين التذكرة"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), ticket))
}

func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	lang := auth.Language(r.Context())
	ticketID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if !h.decodeAndValidate(w, r, lang, &req) {
		return
	}

	ticket, err := h.SupportService.UpdateTicketStatus(ticketID, req.Status, auth.UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, support.ErrInvalidStatus):
			msg := utils.Message{En: "Status must be one of open, in_progress, resolved, closed", Ar: "يجب أن تكون الحالة إحدى: مفتوحة، قيد المعالجة، محلولة، مغلقة"}
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(msg.Pick(lang), nil))
		case errors.Is(err, support.ErrTicketNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgTicketNotFound.Pick(lang), nil))
		default:
			h.Logger.Error("SUPPORT", fmt.Sprintf("UpdateTicketStatus: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
		}
		return
	}

	msg := utils.Message{En: "Ticket status updated", Ar: "تم تحديث حالة التذكرة"}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg.Pick(lang), ticket))
}

func (h *Handler) writeTicketError(w http.ResponseWriter, lang, op string, err error) {
	switch {
	case errors.Is(err, support.ErrTicketNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(msgTicketNotFound.Pick(lang), nil))
	case errors.Is(err, support.ErrForbidden):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(lang), nil))
	default:
		h.Logger.Error("SUPPORT", fmt.Sprintf("%s: %v", op, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(msgServerError.Pick(lang), nil))
	}
}
