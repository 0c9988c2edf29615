package repository

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// TicketRepository is the port for support tickets and their threads.
type TicketRepository interface {
	Save(ctx context.Context, t *model.SupportTicket) error
	FindByID(ctx context.Context, id string) (*model.SupportTicket, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error)
	ListByStatus(ctx context.Context, status model.TicketStatus, limit int) ([]*model.SupportTicket, error)

	AppendMessage(ctx context.Context, m *model.TicketMessage) error
	ListMessages(ctx context.Context, ticketID string) ([]*model.TicketMessage, error)
}
