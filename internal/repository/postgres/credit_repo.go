package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidzea10/Rawbank/internal/domain/credit"
	"github.com/davidzea10/Rawbank/internal/domain/rate"
)

type CreditRepository struct {
	pool *pgxpool.Pool
}

func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

const creditColumns = `id, user_id, request_id, credit_type, principal, monthly_rate, duration_months,
       monthly_payment, start_date, end_date, status, approved_at, created_at`

func (r *CreditRepository) Create(ctx context.Context, in credit.CreateCreditInput) (*credit.Credit, error) {
	q := `
INSERT INTO credits (
  user_id, request_id, credit_type, principal, monthly_rate, duration_months,
  monthly_payment, start_date, end_date, status, approved_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'active',$10)
RETURNING ` + creditColumns
	return r.scanCredit(r.pool.QueryRow(ctx, q,
		in.UserID, in.RequestID, in.Type, in.Principal, in.MonthlyRate, in.DurationMonths,
		in.MonthlyPayment, in.StartDate, in.EndDate, in.ApprovedAt,
	))
}

func (r *CreditRepository) GetByRequestID(ctx context.Context, requestID string) (*credit.Credit, error) {
	q := `SELECT ` + creditColumns + ` FROM credits WHERE request_id = $1`
	out, err := r.scanCredit(r.pool.QueryRow(ctx, q, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrCreditNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *CreditRepository) ListByUser(ctx context.Context, userID string) ([]credit.Credit, error) {
	q := `SELECT ` + creditColumns + ` FROM credits WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]credit.Credit, 0)
	for rows.Next() {
		item, err := r.scanCredit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCompletedByUser satisfies rate.CreditReader: completed credits only,
// most recent first, the order the loyalty streak walk depends on.
func (r *CreditRepository) ListCompletedByUser(ctx context.Context, userID string) ([]rate.CompletedCredit, error) {
	q := `SELECT id, created_at FROM credits WHERE user_id = $1 AND status = 'completed' ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rate.CompletedCredit, 0)
	for rows.Next() {
		var item rate.CompletedCredit
		if err := rows.Scan(&item.ID, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CreditRepository) scanCredit(row pgx.Row) (*credit.Credit, error) {
	out := &credit.Credit{}
	err := row.Scan(
		&out.ID, &out.UserID, &out.RequestID, &out.Type, &out.Principal, &out.MonthlyRate, &out.DurationMonths,
		&out.MonthlyPayment, &out.StartDate, &out.EndDate, &out.Status, &out.ApprovedAt, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
