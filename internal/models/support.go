package models

import (
	"time"

	"github.com/uptrace/bun"

	"cleanserve/internal/utils"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// ValidTicketStatus reports whether s is one of the four known statuses.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets"`

	ID         string         `json:"id" bun:"id,pk"`
	UserID     string         `json:"user_id" bun:"user_id"`
	Subject    string         `json:"subject" bun:"subject"`
	SubjectAr  string         `json:"subject_ar,omitempty" bun:"subject_ar,nullzero"`
	Status     TicketStatus   `json:"status" bun:"status"`
	Priority   TicketPriority `json:"priority" bun:"priority"`
	AssignedTo string         `json:"assigned_to,omitempty" bun:"assigned_to,nullzero"`
	CreatedAt  time.Time      `json:"created_at" bun:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" bun:"updated_at"`
}

// LocalizedSubject returns the Arabic subject when requested and present,
// falling back to English.
func (t *SupportTicket) LocalizedSubject(lang string) string {
	return utils.PickLocalized(t.Subject, t.SubjectAr, lang)
}

type SupportMessage struct {
	bun.BaseModel `bun:"table:support_messages"`

	ID          string    `json:"id" bun:"id,pk"`
	TicketID    string    `json:"ticket_id" bun:"ticket_id"`
	SenderID    string    `json:"sender_id" bun:"sender_id"`
	Message     string    `json:"message" bun:"message"`
	Attachments []string  `json:"attachments,omitempty" bun:"attachments,array"`
	CreatedAt   time.Time `json:"created_at" bun:"created_at"`
}

// SupportMessageWithSender is a message enriched with the resolved sender.
type SupportMessageWithSender struct {
	SupportMessage
	Sender *UserIdentity `json:"sender,omitempty"`
}

// TicketDetail is the getTicket response payload.
type TicketDetail struct {
	SupportTicket
	Messages []SupportMessageWithSender `json:"messages"`
	Assignee *UserIdentity              `json:"assignee,omitempty"`
}

type FAQ struct {
	bun.BaseModel `bun:"table:faqs"`

	ID         string    `json:"id" bun:"id,pk"`
	Category   string    `json:"category" bun:"category"`
	QuestionEn string    `json:"-" bun:"question_en"`
	QuestionAr string    `json:"-" bun:"question_ar,nullzero"`
	AnswerEn   string    `json:"-" bun:"answer_en"`
	AnswerAr   string    `json:"-" bun:"answer_ar,nullzero"`
	SortOrder  int       `json:"sort_order" bun:"sort_order"`
	CreatedAt  time.Time `json:"created_at" bun:"created_at"`
}

// LocalizedFAQ is the API shape of a FAQ entry for one language.
type LocalizedFAQ struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SortOrder int    `json:"sort_order"`
}

func (f *FAQ) Localized(lang string) LocalizedFAQ {
	return LocalizedFAQ{
		ID:        f.ID,
		Category:  f.Category,
		Question:  utils.PickLocalized(f.QuestionEn, f.QuestionAr, lang),
		Answer:    utils.PickLocalized(f.AnswerEn, f.AnswerAr, lang),
		SortOrder: f.SortOrder,
	}
}
