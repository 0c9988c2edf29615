package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusAnswered TicketStatus = "answered"
	TicketStatusClosed   TicketStatus = "closed"
)

// SupportTicket is a user-raised issue, typically about playback or billing.
type SupportTicket struct {
	ID        string
	UserID    string
	Subject   string
	Status    TicketStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketMessage is one entry in a ticket's thread. FromStaff distinguishes
// operator replies from the user's own messages.
type TicketMessage struct {
	ID        string
	TicketID  string
	FromStaff bool
	Body      string
	CreatedAt time.Time
}

func NewSupportTicket(id, userID, subject string) (*SupportTicket, error) {
	if id == "" || userID == "" || subject == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &SupportTicket{
		ID:        id,
		UserID:    userID,
		Subject:   subject,
		Status:    TicketStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
