package support

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	supportdb "cleanserve/internal/support/db"
)

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrForbidden       = errors.New("not allowed to access this ticket")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrInvalidPriority = errors.New("invalid ticket priority")
	ErrAssigneeMissing = errors.New("assignee is required")
	ErrAssigneeRole    = errors.New("assignee must be an admin or support user")
)

type SupportDBLayer interface {
	CreateTicket(ticket models.SupportTicket) error
	GetTicketByID(id string) (*models.SupportTicket, error)
	UpdateTicket(ticket models.SupportTicket) error
	GetTicketsByUser(userID string) ([]models.SupportTicket, error)
	GetAllTickets(status models.TicketStatus, priority models.TicketPriority) ([]models.SupportTicket, error)
	CreateMessage(message models.SupportMessage) error
	GetMessagesByTicket(ticketID string) ([]models.SupportMessage, error)
	GetFAQs(category string) ([]models.FAQ, error)
}

type UserResolver interface {
	GetUserByID(id string) (*models.User, error)
	GetUsersByID(ids []string) (map[string]*models.User, error)
}

type EventPublisher interface {
	PublishJSON(topic, key string, v interface{}) error
}

type SupportService struct {
	DB          SupportDBLayer
	Users       UserResolver
	Events      EventPublisher
	EventsTopic string
	Logger      *logger.Logger
}

func NewSupportService(db SupportDBLayer, users UserResolver, events EventPublisher, topic string, log *logger.Logger) *SupportService {
	return &SupportService{
		DB:          db,
		Users:       users,
		Events:      events,
		EventsTopic: topic,
		Logger:      log,
	}
}

type ticketEvent struct {
	Type       string    `json:"type"`
	TicketID   string    `json:"ticket_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishEvent is best effort. A broker outage must not fail the request.
func (s *SupportService) publishEvent(eventType, ticketID, actorID string) {
	if s.Events == nil {
		return
	}
	evt := ticketEvent{Type: eventType, TicketID: ticketID, ActorID: actorID, OccurredAt: time.Now()}
	if err := s.Events.PublishJSON(s.EventsTopic, ticketID, evt); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish %s for ticket %s: %v", eventType, ticketID, err))
	}
}

// CreateTicket opens a ticket with an initial message.
func (s *SupportService) CreateTicket(userID, subject, subjectAr, message string, priority models.TicketPriority) (*models.SupportTicket, *models.SupportMessage, error) {
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidTicketPriority(priority) {
		return nil, nil, ErrInvalidPriority
	}

	now := time.Now()
	ticket := models.SupportTicket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Subject:   subject,
		SubjectAr: subjectAr,
		Status:    models.TicketOpen,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.CreateTicket(ticket); err != nil {
		return nil, nil, err
	}

	msg := models.SupportMessage{
		ID:        uuid.New().String(),
		TicketID:  ticket.ID,
		SenderID:  userID,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.DB.CreateMessage(msg); err != nil {
		return nil, nil, err
	}

	s.publishEvent("ticket_created", ticket.ID, userID)
	return &ticket, &msg, nil
}

func (s *SupportService) GetUserTickets(userID string) ([]models.SupportTicket, error) {
	return s.DB.GetTicketsByUser(userID)
}

// canAccess enforces the ownership rule: the ticket owner and admins may
// read and write a ticket; everyone else is rejected.
func canAccess(ticket *models.SupportTicket, callerID string, callerRole models.UserRole) bool {
	return ticket.UserID == callerID || callerRole == models.RoleAdmin
}

// GetTicket returns the ticket with its messages and resolved assignee.
func (s *SupportService) GetTicket(id, callerID string, callerRole models.UserRole) (*models.TicketDetail, error) {
	ticket, err := s.DB.GetTicketByID(id)
	if err != nil {
		if errors.Is(err, supportdb.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if !canAccess(ticket, callerID, callerRole) {
		return nil, ErrForbidden
	}

	messages, err := s.GetTicketMessages(id, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	detail := &models.TicketDetail{
		SupportTicket: *ticket,
		Messages:      messages,
	}

	if ticket.AssignedTo != "" {
		assignee, err := s.Users.GetUserByID(ticket.AssignedTo)
		if err == nil {
			identity := assignee.Identity()
			detail.Assignee = &identity
		}
	}
	return detail, nil
}

// SendMessage appends a message to a ticket. When the owner replies to a
// resolved ticket it reopens; staff replies never change the status.
func (s *SupportService) SendMessage(ticketID, senderID string, senderRole models.UserRole, message string, attachments []string) (*models.SupportMessage, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, supportdb.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if !canAccess(ticket, senderID, senderRole) {
		return nil, ErrForbidden
	}

	msg := models.SupportMessage{
		ID:          uuid.New().String(),
		TicketID:    ticketID,
		SenderID:    senderID,
		Message:     message,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.CreateMessage(msg); err != nil {
		return nil, err
	}

	if ticket.Status == models.TicketResolved && ticket.UserID == senderID {
		ticket.Status = models.TicketOpen
		ticket.UpdatedAt = time.Now()
		if err := s.DB.UpdateTicket(*ticket); err != nil {
			return nil, err
		}
		s.publishEvent("ticket_reopened", ticket.ID, senderID)
	}

	return &msg, nil
}

// GetTicketMessages returns the message thread with resolved senders.
func (s *SupportService) GetTicketMessages(ticketID, callerID string, callerRole models.UserRole) ([]models.SupportMessageWithSender, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, supportdb.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if !canAccess(ticket, callerID, callerRole) {
		return nil, ErrForbidden
	}

	messages, err := s.DB.GetMessagesByTicket(ticketID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(messages))
	seen := map[string]bool{}
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.Users.GetUsersByID(senderIDs)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.SupportMessageWithSender, len(messages))
	for i, m := range messages {
		enriched[i] = models.SupportMessageWithSender{SupportMessage: m}
		if sender, ok := senders[m.SenderID]; ok {
			identity := sender.Identity()
			enriched[i].Sender = &identity
		}
	}
	return enriched, nil
}

// FAQResult is the getFAQs payload: flat count and category keys always,
// grouped map only when no category filter was given.
type FAQResult struct {
	Count      int                              `json:"count"`
	Categories []string                         `json:"categories"`
	FAQs       []models.LocalizedFAQ            `json:"faqs,omitempty"`
	Grouped    map[string][]models.LocalizedFAQ `json:"grouped,omitempty"`
}

func (s *SupportService) GetFAQs(category, lang string) (*FAQResult, error) {
	faqs, err := s.DB.GetFAQs(category)
	if err != nil {
		return nil, err
	}

	localized := make([]models.LocalizedFAQ, len(faqs))
	categories := []string{}
	seen := map[string]bool{}
	for i, f := range faqs {
		localized[i] = f.Localized(lang)
		if !seen[f.Category] {
			seen[f.Category] = true
			categories = append(categories, f.Category)
		}
	}

	result := &FAQResult{Count: len(localized), Categories: categories}
	if category != "" {
		result.FAQs = localized
		return result, nil
	}

	grouped := map[string][]models.LocalizedFAQ{}
	for _, f := range localized {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	result.Grouped = grouped
	return result, nil
}

// ---------------- ADMIN ----------------

func (s *SupportService) GetAllTickets(status models.TicketStatus, priority models.TicketPriority) ([]models.SupportTicket, error) {
	if status != "" && !models.ValidTicketStatus(status) {
		return nil, ErrInvalidStatus
	}
	if priority != "" && !models.ValidTicketPriority(priority) {
		return nil, ErrInvalidPriority
	}
	return s.DB.GetAllTickets(status, priority)
}

// AssignTicket puts a ticket in the hands of a staff member and moves it
// to in_progress.
func (s *SupportService) AssignTicket(ticketID, assigneeID, actorID string) (*models.SupportTicket, error) {
	if assigneeID == "" {
		return nil, ErrAssigneeMissing
	}

	assignee, err := s.Users.GetUserByID(assigneeID)
	if err != nil || !assignee.Role.IsStaff() {
		return nil, ErrAssigneeRole
	}

	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, supportdb.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	ticket.AssignedTo = assigneeID
	ticket.Status = models.TicketInProgress
	ticket.UpdatedAt = time.Now()
	if err := s.DB.UpdateTicket(*ticket); err != nil {
		return nil, err
	}

	s.publishEvent("ticket_assigned", ticket.ID, actorID)
	return ticket, nil
}

// UpdateTicketStatus sets any of the four statuses directly. No transition
// table is enforced for staff.
func (s *SupportService) UpdateTicketStatus(ticketID string, status models.TicketStatus, actorID string) (*models.SupportTicket, error) {
	if !models.ValidTicketStatus(status) {
		return nil, ErrInvalidStatus
	}

	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, supportdb.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	if err := s.DB.UpdateTicket(*ticket); err != nil {
		return nil, err
	}

	s.publishEvent("ticket_status_changed", ticket.ID, actorID)
	return ticket, nil
}
