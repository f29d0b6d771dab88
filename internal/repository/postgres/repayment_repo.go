package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidzea10/Rawbank/internal/domain/credit"
	"github.com/davidzea10/Rawbank/internal/domain/rate"
)

// RepaymentRepository is read-only: the repayment-tracking subsystem owns
// the writes.
type RepaymentRepository struct {
	pool *pgxpool.Pool
}

func NewRepaymentRepository(pool *pgxpool.Pool) *RepaymentRepository {
	return &RepaymentRepository{pool: pool}
}

func (r *RepaymentRepository) ListByCredit(ctx context.Context, creditID string) ([]credit.Repayment, error) {
	q := `
SELECT id, credit_id, amount, status, on_time, due_date, paid_at
FROM repayments
WHERE credit_id = $1
ORDER BY due_date ASC
`
	rows, err := r.pool.Query(ctx, q, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]credit.Repayment, 0)
	for rows.Next() {
		var item credit.Repayment
		if err := rows.Scan(&item.ID, &item.CreditID, &item.Amount, &item.Status, &item.OnTime, &item.DueDate, &item.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCompletedByCredit satisfies rate.RepaymentReader: only completed
// repayments count toward the loyalty streak.
func (r *RepaymentRepository) ListCompletedByCredit(ctx context.Context, creditID string) ([]rate.RepaymentMark, error) {
	q := `SELECT on_time FROM repayments WHERE credit_id = $1 AND status = 'completed'`
	rows, err := r.pool.Query(ctx, q, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rate.RepaymentMark, 0)
	for rows.Next() {
		var item rate.RepaymentMark
		if err := rows.Scan(&item.OnTime); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
