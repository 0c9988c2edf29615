package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, registered_at, last_active_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET email=$2, name=$3, last_active_at=$5;`

	_, err := execSQL(ctx, r.pool, nil, q, u.ID, u.Email, u.Name, u.RegisteredAt, u.LastActiveAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, email, name, registered_at, last_active_at FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, email, name, registered_at, last_active_at FROM users WHERE email=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, nil, q, email)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users;`
	row, err := pickRow(ctx, r.pool, nil, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.RegisteredAt, &u.LastActiveAt); err != nil {
		return nil, scanErr(err)
	}
	return u, nil
}
