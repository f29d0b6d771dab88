package rate

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/davidzea10/Rawbank/internal/domain/scoring"
)

// Service computes base rates, loyalty discounts, amortized payments and
// late penalties. The formulas and tier boundaries are contractual.
type Service struct {
	credits    CreditReader
	repayments RepaymentReader
	scores     ScoreGetter
}

func NewService(credits CreditReader, repayments RepaymentReader, scores ScoreGetter) *Service {
	return &Service{credits: credits, repayments: repayments, scores: scores}
}

// BaseRateForScore returns the monthly base rate in percent for a display
// score, or ok=false below the automatic-credit threshold of 700.
func BaseRateForScore(score int) (float64, bool) {
	switch {
	case score >= 900:
		return 3, true
	case score >= 800:
		return 3.5, true
	case score >= 700:
		return 4, true
	default:
		return 0, false
	}
}

// LoyaltyDiscount walks the user's completed credits from most recent and
// counts consecutive fully-on-time ones. A credit is fully on time iff it
// has at least one completed repayment and none is explicitly late. The
// walk stops at the first credit that breaks the streak.
func (s *Service) LoyaltyDiscount(ctx context.Context, userID string) (float64, error) {
	credits, err := s.credits.ListCompletedByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	consecutive := 0
	for _, c := range credits {
		marks, err := s.repayments.ListCompletedByCredit(ctx, c.ID)
		if err != nil {
			return 0, err
		}
		if !fullyOnTime(marks) {
			break
		}
		consecutive++
	}

	switch {
	case consecutive >= 2:
		return 1, nil
	case consecutive == 1:
		return 0.5, nil
	default:
		return 0, nil
	}
}

func fullyOnTime(marks []RepaymentMark) bool {
	if len(marks) == 0 {
		return false
	}
	for _, m := range marks {
		if m.OnTime != nil && !*m.OnTime {
			return false
		}
	}
	return true
}

// FinalRate is base minus loyalty discount, floored at 3%. ok=false means
// the score is ineligible for an automatic rate.
func (s *Service) FinalRate(ctx context.Context, score int, userID string) (float64, bool, error) {
	base, ok := BaseRateForScore(score)
	if !ok {
		return 0, false, nil
	}
	discount, err := s.LoyaltyDiscount(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return math.Max(RateFloor, base-discount), true, nil
}

// MonthlyPayment computes the level monthly payment for a principal at a
// monthly rate over a term. One-month credits repay principal plus one
// period of interest; longer terms use the standard amortization formula
// P*r(1+r)^n/((1+r)^n-1). Rounding to the nearest currency unit happens
// once, at the end.
func MonthlyPayment(principal int64, monthlyRatePct float64, months int) int64 {
	r := monthlyRatePct / 100
	if months == 1 {
		return decimal.NewFromFloat(float64(principal) * (1 + r)).Round(0).IntPart()
	}
	factor := math.Pow(1+r, float64(months))
	payment := float64(principal) * r * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(0).IntPart()
}

// Penalty returns the late fee in CDF for a payment daysLate overdue on
// remainingPrincipal. Day 7 falls in the 7-30 band, day 30 included.
func Penalty(daysLate int, remainingPrincipal int64) int64 {
	if daysLate <= 0 {
		return 0
	}
	remaining := decimal.NewFromInt(remainingPrincipal)
	switch {
	case daysLate < 7:
		return remaining.Mul(decimal.NewFromFloat(penaltyShortPct)).Round(0).IntPart()
	case daysLate <= 30:
		return remaining.Mul(decimal.NewFromFloat(penaltyMidPct)).Round(0).IntPart() + penaltyMidFee
	default:
		return remaining.Mul(decimal.NewFromFloat(penaltyLongPct)).Round(0).IntPart() + penaltyLongFee
	}
}

// Simulate builds the full repayment preview. It never hard-fails on score
// resolution: a lookup failure falls back to an assumed score of 700,
// flagged in ScoreSource so the UI can tell a real score from a default.
func (s *Service) Simulate(ctx context.Context, userID string, amount int64, durationMonths int, scoreOverride *int) (*Simulation, error) {
	if !ValidDuration(durationMonths) {
		return nil, ErrInvalidDuration
	}

	score := 0
	source := scoring.Source{Kind: scoring.SourceResolved}
	switch {
	case scoreOverride != nil:
		score = *scoreOverride
	case userID != "":
		result, err := s.scores.GetScore(ctx, userID)
		if err != nil {
			score = 700
			source = scoring.Source{Kind: scoring.SourceDefaultAssumed, Reason: err.Error()}
		} else {
			score = result.Display
			source = result.Source
		}
	default:
		score = 700
		source = scoring.Source{Kind: scoring.SourceDefaultAssumed, Reason: "aucun utilisateur"}
	}

	base, ok := BaseRateForScore(score)
	if !ok {
		return &Simulation{
			OK:          false,
			Message:     "Score insuffisant pour le crédit (min 700)",
			Score:       score,
			ScoreSource: source,
		}, nil
	}

	discount := 0.0
	if userID != "" {
		d, err := s.LoyaltyDiscount(ctx, userID)
		if err != nil {
			return nil, err
		}
		discount = d
	}
	finalRate := math.Max(RateFloor, base-discount)

	payment := MonthlyPayment(amount, finalRate, durationMonths)
	total := payment * int64(durationMonths)

	return &Simulation{
		OK:              true,
		Score:           score,
		ScoreSource:     source,
		Capital:         amount,
		BaseRate:        base,
		LoyaltyDiscount: discount,
		FinalRate:       finalRate,
		DurationMonths:  durationMonths,
		MonthlyPayment:  payment,
		TotalRepayable:  total,
		Interest:        total - amount,
	}, nil
}
