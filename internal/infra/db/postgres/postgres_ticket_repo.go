package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo struct{ pool *pgxpool.Pool }

func NewTicketRepo(pool *pgxpool.Pool) *ticketRepo {
	return &ticketRepo{pool: pool}
}

func (r *ticketRepo) Save(ctx context.Context, t *model.SupportTicket) error {
	const q = `
INSERT INTO support_tickets (id, user_id, subject, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET status=$4, updated_at=$6;`

	_, err := execSQL(ctx, r.pool, nil, q, t.ID, t.UserID, t.Subject, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ticketRepo) FindByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	const q = `SELECT id, user_id, subject, status, created_at, updated_at FROM support_tickets WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	return scanTicket(row)
}

func (r *ticketRepo) ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	const q = `SELECT id, user_id, subject, status, created_at, updated_at FROM support_tickets WHERE user_id=$1 ORDER BY updated_at DESC;`
	return r.list(ctx, q, userID)
}

func (r *ticketRepo) ListByStatus(ctx context.Context, status model.TicketStatus, limit int) ([]*model.SupportTicket, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, user_id, subject, status, created_at, updated_at FROM support_tickets WHERE status=$1 ORDER BY updated_at ASC LIMIT $2;`
	return r.list(ctx, q, status, limit)
}

func (r *ticketRepo) AppendMessage(ctx context.Context, m *model.TicketMessage) error {
	const q = `INSERT INTO ticket_messages (id, ticket_id, from_staff, body, created_at) VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, nil, q, m.ID, m.TicketID, m.FromStaff, m.Body, m.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ticketRepo) ListMessages(ctx context.Context, ticketID string) ([]*model.TicketMessage, error) {
	const q = `SELECT id, ticket_id, from_staff, body, created_at FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, nil, q, ticketID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.TicketMessage
	for rows.Next() {
		m := &model.TicketMessage{}
		if err := rows.Scan(&m.ID, &m.TicketID, &m.FromStaff, &m.Body, &m.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *ticketRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.SupportTicket, error) {
	rows, err := queryRows(ctx, r.pool, nil, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func scanTicket(row pgx.Row) (*model.SupportTicket, error) {
	t := &model.SupportTicket{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return t, nil
}
