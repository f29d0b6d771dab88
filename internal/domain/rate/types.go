package rate

import (
	"context"
	"errors"
	"time"

	"github.com/davidzea10/Rawbank/internal/domain/scoring"
)

const (
	// RateFloor is the lowest monthly rate ever applied, in percent.
	RateFloor = 3.0

	// Penalty schedule: percentage of remaining principal plus a flat
	// fee in CDF, by days late.
	penaltyShortPct = 0.01
	penaltyMidPct   = 0.02
	penaltyLongPct  = 0.03
	penaltyMidFee   = 5000
	penaltyLongFee  = 10000
)

// EligibleDurations are the only credit terms offered, in months.
var EligibleDurations = []int{1, 3, 6}

var ErrInvalidDuration = errors.New("Durée invalide (1, 3 ou 6 mois)")

// CompletedCredit is the slice of credit history the loyalty computation
// needs, ordered most-recent-first by creation time.
type CompletedCredit struct {
	ID        string
	CreatedAt time.Time
}

// RepaymentMark is one completed repayment's punctuality flag. OnTime is
// nullable in the store; only an explicit false breaks a credit's streak.
type RepaymentMark struct {
	OnTime *bool
}

type CreditReader interface {
	ListCompletedByUser(ctx context.Context, userID string) ([]CompletedCredit, error)
}

type RepaymentReader interface {
	ListCompletedByCredit(ctx context.Context, creditID string) ([]RepaymentMark, error)
}

type ScoreGetter interface {
	GetScore(ctx context.Context, userID string) (*scoring.Result, error)
}

// Simulation is the full repayment preview shown before a credit request.
// OK=false carries an eligibility message instead of figures.
type Simulation struct {
	OK              bool           `json:"ok"`
	Message         string         `json:"message,omitempty"`
	Score           int            `json:"score,omitempty"`
	ScoreSource     scoring.Source `json:"scoreSource"`
	Capital         int64          `json:"capital,omitempty"`
	BaseRate        float64        `json:"tauxBase,omitempty"`
	LoyaltyDiscount float64        `json:"reductionFidelite"`
	FinalRate       float64        `json:"tauxFinal,omitempty"`
	DurationMonths  int            `json:"dureeMois,omitempty"`
	MonthlyPayment  int64          `json:"mensualite,omitempty"`
	TotalRepayable  int64          `json:"totalArembourser,omitempty"`
	Interest        int64          `json:"interets,omitempty"`
}

// ValidDuration reports whether months is one of the offered terms.
func ValidDuration(months int) bool {
	for _, d := range EligibleDurations {
		if months == d {
			return true
		}
	}
	return false
}
