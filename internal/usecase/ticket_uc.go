// File: internal/usecase/ticket_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ TicketUseCase = (*ticketUC)(nil)

type TicketUseCase interface {
	Open(ctx context.Context, userID, subject, body string) (*model.SupportTicket, error)
	Reply(ctx context.Context, ticketID, body string, fromStaff bool) error
	Close(ctx context.Context, ticketID string) error
	Get(ctx context.Context, ticketID string) (*model.SupportTicket, []*model.TicketMessage, error)
	ListForUser(ctx context.Context, userID string) ([]*model.SupportTicket, error)
	ListOpen(ctx context.Context, limit int) ([]*model.SupportTicket, error)
}

type ticketUC struct {
	tickets repository.TicketRepository
	notify  NotificationUseCase
	log     *zerolog.Logger
}

func NewTicketUseCase(tickets repository.TicketRepository, notify NotificationUseCase, logger *zerolog.Logger) *ticketUC {
	return &ticketUC{tickets: tickets, notify: notify, log: logger}
}

func (u *ticketUC) Open(ctx context.Context, userID, subject, body string) (*model.SupportTicket, error) {
	t, err := model.NewSupportTicket(uuid.NewString(), userID, subject)
	if err != nil {
		return nil, err
	}
	if err := u.tickets.Save(ctx, t); err != nil {
		return nil, err
	}
	msg := &model.TicketMessage{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		FromStaff: false,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := u.tickets.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *ticketUC) Reply(ctx context.Context, ticketID, body string, fromStaff bool) error {
	t, err := u.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if t.Status == model.TicketStatusClosed {
		return domain.ErrInvalidArgument
	}

	msg := &model.TicketMessage{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		FromStaff: fromStaff,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := u.tickets.AppendMessage(ctx, msg); err != nil {
		return err
	}

	// A staff reply flips the ticket to answered; a user reply reopens it.
	if fromStaff {
		t.Status = model.TicketStatusAnswered
	} else {
		t.Status = model.TicketStatusOpen
	}
	t.UpdatedAt = time.Now()
	if err := u.tickets.Save(ctx, t); err != nil {
		return err
	}

	if fromStaff {
		_ = u.notify.Notify(ctx, t.UserID, model.NotificationKindTicketAnswered, "Support replied to your ticket",
			"Your support ticket \""+t.Subject+"\" has a new reply.")
	}
	return nil
}

func (u *ticketUC) Close(ctx context.Context, ticketID string) error {
	t, err := u.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return err
	}
	t.Status = model.TicketStatusClosed
	t.UpdatedAt = time.Now()
	return u.tickets.Save(ctx, t)
}

func (u *ticketUC) Get(ctx context.Context, ticketID string) (*model.SupportTicket, []*model.TicketMessage, error) {
	t, err := u.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := u.tickets.ListMessages(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return t, msgs, nil
}

func (u *ticketUC) ListForUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	return u.tickets.ListByUser(ctx, userID)
}

func (u *ticketUC) ListOpen(ctx context.Context, limit int) ([]*model.SupportTicket, error) {
	return u.tickets.ListByStatus(ctx, model.TicketStatusOpen, limit)
}
