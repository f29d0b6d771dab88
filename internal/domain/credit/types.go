package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidzea10/Rawbank/internal/domain/scoring"
)

const (
	// MinRequestAmount is the smallest credit request accepted, in CDF.
	MinRequestAmount = 10000

	// Score thresholds for the three-way decision.
	scoreRejectBelow = 500
	scoreAutoApprove = 700

	TypeMicrocredit = "microcredit"

	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"

	DecisionAutomatic = "automatic"
	DecisionManual    = "manual"

	CreditActive    = "active"
	CreditCompleted = "completed"
	CreditDefaulted = "defaulted"
)

var (
	ErrInvalidAmount   = errors.New("Montant invalide (min 10 000 CDF)")
	ErrInvalidDuration = errors.New("Durée invalide (1, 3 ou 6 mois)")

	ErrRequestNotFound = errors.New("request_not_found")
	ErrCreditNotFound  = errors.New("credit_not_found")
)

// ScoreUnavailableError wraps a score-resolution failure; the underlying
// message is already user-diagnosable and is surfaced unchanged.
type ScoreUnavailableError struct {
	Err error
}

func (e *ScoreUnavailableError) Error() string { return e.Err.Error() }
func (e *ScoreUnavailableError) Unwrap() error { return e.Err }

// Request is one credit submission with its terminal decision embedded.
// Created exactly once per call, never mutated afterwards except for the
// reconciliation flag.
type Request struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"id_utilisateur"`
	Type                string    `json:"type_credit"`
	RequestedAmount     int64     `json:"montant_demande"`
	RequestedDuration   int       `json:"duree_demandee_mois"`
	Purpose             *string   `json:"raison"`
	ScoreAtRequest      int       `json:"score_actuel"`
	Status              string    `json:"statut"`
	DecisionKind        *string   `json:"decision"`
	ApprovedAmount      *int64    `json:"montant_approuve"`
	ApprovedRate        *float64  `json:"taux_approuve"`
	ApprovedInstallment *int64    `json:"mensualite_approuvee"`
	RejectionReason     *string   `json:"raison_rejet"`
	NeedsReconciliation bool      `json:"needs_reconciliation"`
	CreatedAt           time.Time `json:"date_creation"`
}

type CreateRequestInput struct {
	UserID              string
	Type                string
	RequestedAmount     int64
	RequestedDuration   int
	Purpose             *string
	ScoreAtRequest      int
	Status              string
	DecisionKind        *string
	ApprovedAmount      *int64
	ApprovedRate        *float64
	ApprovedInstallment *int64
	RejectionReason     *string
}

// Credit is the disbursed loan created when a request auto-approves.
// Exactly one credit per approved request.
type Credit struct {
	ID             string    `json:"id"`
	UserID         string    `json:"id_utilisateur"`
	RequestID      string    `json:"id_demande"`
	Type           string    `json:"type_credit"`
	Principal      int64     `json:"montant"`
	MonthlyRate    float64   `json:"taux_interet"`
	DurationMonths int       `json:"duree_mois"`
	MonthlyPayment int64     `json:"mensualite"`
	StartDate      time.Time `json:"date_debut"`
	EndDate        time.Time `json:"date_fin"`
	Status         string    `json:"statut"`
	ApprovedAt     time.Time `json:"date_approbation"`
	CreatedAt      time.Time `json:"date_creation"`
}

type CreateCreditInput struct {
	UserID         string
	RequestID      string
	Type           string
	Principal      int64
	MonthlyRate    float64
	DurationMonths int
	MonthlyPayment int64
	StartDate      time.Time
	EndDate        time.Time
	ApprovedAt     time.Time
}

// Repayment rows are written by the repayment-tracking subsystem; this
// service only reads them.
type Repayment struct {
	ID       string     `json:"id"`
	CreditID string     `json:"id_credit"`
	Amount   int64      `json:"montant"`
	Status   string     `json:"statut"`
	OnTime   *bool      `json:"est_a_temps"`
	DueDate  time.Time  `json:"date_echeance"`
	PaidAt   *time.Time `json:"date_paiement"`
}

// DecisionOutcome is what the submission endpoint returns. Message is
// tier-specific and shown verbatim to the client.
type DecisionOutcome struct {
	Approved       bool    `json:"approved"`
	Status         string  `json:"statut"`
	RequestID      string  `json:"demandeId"`
	CreditID       *string `json:"creditId"`
	Message        string  `json:"message"`
	Reconciliation bool    `json:"reconciliation,omitempty"`
}

func rejectionLimitMessage(limit int64) string {
	return fmt.Sprintf("Montant supérieur au plafond (%d CDF)", limit)
}

type RequestRepository interface {
	Create(ctx context.Context, in CreateRequestInput) (*Request, error)
	GetByID(ctx context.Context, id string) (*Request, error)
	ListByStatus(ctx context.Context, status string, limit, offset int32) ([]Request, error)
	MarkNeedsReconciliation(ctx context.Context, requestID string) error
	ClearReconciliation(ctx context.Context, requestID string) error
}

type CreditRepository interface {
	Create(ctx context.Context, in CreateCreditInput) (*Credit, error)
	GetByRequestID(ctx context.Context, requestID string) (*Credit, error)
	ListByUser(ctx context.Context, userID string) ([]Credit, error)
}

type RepaymentRepository interface {
	ListByCredit(ctx context.Context, creditID string) ([]Repayment, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

type ScoreGetter interface {
	GetScore(ctx context.Context, userID string) (*scoring.Result, error)
}

type RateCalculator interface {
	FinalRate(ctx context.Context, score int, userID string) (float64, bool, error)
}
