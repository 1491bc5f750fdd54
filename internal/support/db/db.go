package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- TICKETS ----------------

func (d *DB) CreateTicket(ticket models.SupportTicket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(context.Background())
	return err
}

func (d *DB) GetTicketByID(id string) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) UpdateTicket(ticket models.SupportTicket) error {
	_, err := d.Bun.NewUpdate().
		Model(&ticket).
		Column("status", "priority", "assigned_to", "updated_at").
		Where("id = ?", ticket.ID).
		Exec(context.Background())
	return err
}

func (d *DB) GetTicketsByUser(userID string) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.SupportTicket{}
	}
	return tickets, nil
}

// GetAllTickets lists every ticket, optionally filtered by status and
// priority.
func (d *DB) GetAllTickets(status models.TicketStatus, priority models.TicketPriority) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	q := d.Bun.NewSelect().
		Model(&tickets).
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if priority != "" {
		q = q.Where("priority = ?", priority)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.SupportTicket{}
	}
	return tickets, nil
}

// ---------------- MESSAGES ----------------

func (d *DB) CreateMessage(message models.SupportMessage) error {
	_, err := d.Bun.NewInsert().Model(&message).Exec(context.Background())
	return err
}

func (d *DB) GetMessagesByTicket(ticketID string) ([]models.SupportMessage, error) {
	var messages []models.SupportMessage
	err := d.Bun.NewSelect().
		Model(&messages).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.SupportMessage{}
	}
	return messages, nil
}

// ---------------- FAQS ----------------

func (d *DB) GetFAQs(category string) ([]models.FAQ, error) {
	var faqs []models.FAQ
	q := d.Bun.NewSelect().
		Model(&faqs).
		Order("category ASC", "sort_order ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	return faqs, nil
}
