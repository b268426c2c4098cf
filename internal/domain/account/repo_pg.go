package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicapi/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO users (fullname, username, password, role) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.FullName, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	return db.MapError(err, "User")
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, fullname, username, password, role, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.FullName, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, db.MapError(err, "User")
	}
	return &u, nil
}
