package operator

import (
	"context"
	"errors"
	"fmt"
)

// FeatureVector is the fixed 15-field behavioral profile consumed by the
// scoring model. Field order and JSON names match the model's training
// columns and must not change.
type FeatureVector struct {
	AvgTransactionAmount  float64 `json:"avg_transaction_amount"`
	TransactionAmountStd  float64 `json:"transaction_amount_std"`
	AvgBalance            float64 `json:"avg_balance"`
	BalanceVolatility     float64 `json:"balance_volatility"`
	FeeRatio              float64 `json:"fee_ratio"`
	TransactionRegularity float64 `json:"transaction_regularity"`
	RechargeFrequency     float64 `json:"recharge_frequency"`
	AvgRechargeAmount     float64 `json:"avg_recharge_amount"`
	SmallRechargeRatio    float64 `json:"small_recharge_ratio"`
	TotalCalls            float64 `json:"total_calls"`
	AvgCallDuration       float64 `json:"avg_call_duration"`
	TotalDataMB           float64 `json:"total_data_mb"`
	TotalSMS              float64 `json:"total_sms"`
	CallFailureRate       float64 `json:"call_failure_rate"`
	PhoneActivityScore    float64 `json:"phone_activity_score"`
}

// Record is one row of the imported operator dataset, keyed by normalized
// phone number. Immutable once fetched.
type Record struct {
	PhoneNumber string        `json:"numero_telephone"`
	Features    FeatureVector `json:"features"`
}

var (
	ErrUserNotFound   = errors.New("Utilisateur non trouvé dans la table utilisateurs")
	ErrMissingPhone   = errors.New("Numéro téléphone absent pour cet utilisateur")
	ErrRecordNotFound = errors.New("operator record not found")
)

// RecordNotFoundError carries the normalized number so the caller can see
// exactly what was searched in the operator dataset.
type RecordNotFoundError struct {
	Number string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("Numéro %q non trouvé dans donnees_operateurs. Vérifiez que ce numéro est dans le CSV importé.", e.Number)
}

type UserDirectory interface {
	PhoneNumberByUserID(ctx context.Context, userID string) (string, error)
}

type Repository interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*Record, error)
}
