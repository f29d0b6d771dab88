package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

// OperatorRepository reads the imported operator dataset. Nullable feature
// columns are coalesced to zero at read time, matching the model's
// missing-value convention.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

func (r *OperatorRepository) GetByPhone(ctx context.Context, phoneNumber string) (*operator.Record, error) {
	q := `
SELECT phone_number,
       COALESCE(avg_transaction_amount, 0),
       COALESCE(transaction_amount_std, 0),
       COALESCE(avg_balance, 0),
       COALESCE(balance_volatility, 0),
       COALESCE(fee_ratio, 0),
       COALESCE(transaction_regularity, 0),
       COALESCE(recharge_frequency, 0),
       COALESCE(avg_recharge_amount, 0),
       COALESCE(small_recharge_ratio, 0),
       COALESCE(total_calls, 0),
       COALESCE(avg_call_duration, 0),
       COALESCE(total_data_mb, 0),
       COALESCE(total_sms, 0),
       COALESCE(call_failure_rate, 0),
       COALESCE(phone_activity_score, 0)
FROM operator_records
WHERE phone_number = $1
`
	rec := &operator.Record{}
	f := &rec.Features
	err := r.pool.QueryRow(ctx, q, phoneNumber).Scan(
		&rec.PhoneNumber,
		&f.AvgTransactionAmount, &f.TransactionAmountStd, &f.AvgBalance,
		&f.BalanceVolatility, &f.FeeRatio, &f.TransactionRegularity,
		&f.RechargeFrequency, &f.AvgRechargeAmount, &f.SmallRechargeRatio,
		&f.TotalCalls, &f.AvgCallDuration, &f.TotalDataMB, &f.TotalSMS,
		&f.CallFailureRate, &f.PhoneActivityScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, operator.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}
