package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidzea10/Rawbank/internal/auth"
	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

// UserRepository backs both the auth service (users + sessions) and the
// operator feature lookup (user -> phone number).
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, mobile_money_operator, role, created_at`

func (r *UserRepository) CreateUser(ctx context.Context, in auth.CreateUserInput) (*auth.User, error) {
	q := `
INSERT INTO users (email, password_hash, first_name, last_name, phone_number, mobile_money_operator, role)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	u := &auth.User{}
	err := r.pool.QueryRow(ctx, q,
		in.Email, in.PasswordHash, in.FirstName, in.LastName, in.PhoneNumber, in.MobileMoneyOperator, in.Role,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.MobileMoneyOperator, &u.Role, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, auth.ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*auth.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := r.scanUser(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, operator.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// PhoneNumberByUserID satisfies operator.UserDirectory.
func (r *UserRepository) PhoneNumberByUserID(ctx context.Context, userID string) (string, error) {
	q := `SELECT COALESCE(phone_number, '') FROM users WHERE id = $1`
	var phone string
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", operator.ErrUserNotFound
		}
		return "", err
	}
	return phone, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, userID, refreshHash string, expiresAt time.Time) (*auth.Session, error) {
	q := `
INSERT INTO sessions (user_id, refresh_token_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, refresh_token_hash, expires_at, revoked_at, created_at
`
	s := &auth.Session{}
	err := r.pool.QueryRow(ctx, q, userID, refreshHash, expiresAt).
		Scan(&s.ID, &s.UserID, &s.RefreshHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *UserRepository) GetSessionByID(ctx context.Context, sessionID string) (*auth.Session, error) {
	q := `SELECT id, user_id, refresh_token_hash, expires_at, revoked_at, created_at FROM sessions WHERE id = $1`
	s := &auth.Session{}
	err := r.pool.QueryRow(ctx, q, sessionID).
		Scan(&s.ID, &s.UserID, &s.RefreshHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *UserRepository) RevokeSession(ctx context.Context, sessionID string) error {
	q := `UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sessionID)
	return err
}

func (r *UserRepository) UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error {
	q := `UPDATE sessions SET refresh_token_hash = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, sessionID, refreshHash)
	return err
}

func (r *UserRepository) scanUser(row pgx.Row) (*auth.User, error) {
	u := &auth.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.MobileMoneyOperator, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
