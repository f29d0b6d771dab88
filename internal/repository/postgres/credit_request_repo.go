package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidzea10/Rawbank/internal/domain/credit"
)

type CreditRequestRepository struct {
	pool *pgxpool.Pool
}

func NewCreditRequestRepository(pool *pgxpool.Pool) *CreditRequestRepository {
	return &CreditRequestRepository{pool: pool}
}

const requestColumns = `id, user_id, credit_type, requested_amount, requested_duration_months, purpose,
       score_at_request, status, decision_kind, approved_amount, approved_rate,
       approved_installment, rejection_reason, needs_reconciliation, created_at`

func (r *CreditRequestRepository) Create(ctx context.Context, in credit.CreateRequestInput) (*credit.Request, error) {
	q := `
INSERT INTO credit_requests (
  user_id, credit_type, requested_amount, requested_duration_months, purpose,
  score_at_request, status, decision_kind, approved_amount, approved_rate,
  approved_installment, rejection_reason
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING ` + requestColumns
	return r.scanRequest(r.pool.QueryRow(ctx, q,
		in.UserID, in.Type, in.RequestedAmount, in.RequestedDuration, in.Purpose,
		in.ScoreAtRequest, in.Status, in.DecisionKind, in.ApprovedAmount, in.ApprovedRate,
		in.ApprovedInstallment, in.RejectionReason,
	))
}

func (r *CreditRequestRepository) GetByID(ctx context.Context, id string) (*credit.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM credit_requests WHERE id = $1`
	request, err := r.scanRequest(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (r *CreditRequestRepository) ListByStatus(ctx context.Context, status string, limit, offset int32) ([]credit.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + requestColumns + `
FROM credit_requests
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]credit.Request, 0)
	for rows.Next() {
		item, err := r.scanRequest(rows)
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

func (r *CreditRequestRepository) MarkNeedsReconciliation(ctx context.Context, requestID string) error {
	q := `UPDATE credit_requests SET needs_reconciliation = TRUE WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, requestID)
	return err
}

func (r *CreditRequestRepository) ClearReconciliation(ctx context.Context, requestID string) error {
	q := `UPDATE credit_requests SET needs_reconciliation = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, requestID)
	return err
}

func (r *CreditRequestRepository) scanRequest(row pgx.Row) (*credit.Request, error) {
	out := &credit.Request{}
	err := row.Scan(
		&out.ID, &out.UserID, &out.Type, &out.RequestedAmount, &out.RequestedDuration, &out.Purpose,
		&out.ScoreAtRequest, &out.Status, &out.DecisionKind, &out.ApprovedAmount, &out.ApprovedRate,
		&out.ApprovedInstallment, &out.RejectionReason, &out.NeedsReconciliation, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
