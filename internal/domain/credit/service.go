package credit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/davidzea10/Rawbank/internal/domain/rate"
)

// OutboxTopicCreateCredit queues credit creation retries for approved
// requests whose credit row failed to write.
const OutboxTopicCreateCredit = "create_credit"

const (
	msgApproved = "Crédit accordé"
	msgPending  = "Demande enregistrée, validation manuelle en cours"
	msgRejected = "Demande refusée (score insuffisant)"

	reasonInsufficientScore = "Score insuffisant (< 500)"
)

// Service drives the three-tier credit decision: automatic approval,
// manual review or rejection. Every submission persists exactly one
// request row with the full decision embedded; a credit row is created
// only on automatic approval.
type Service struct {
	scores        ScoreGetter
	rates         RateCalculator
	requestRepo   RequestRepository
	creditRepo    CreditRepository
	repaymentRepo RepaymentRepository
	outboxRepo    OutboxRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(scores ScoreGetter, rates RateCalculator, requestRepo RequestRepository, creditRepo CreditRepository, repaymentRepo RepaymentRepository, outboxRepo OutboxRepository, logger *slog.Logger) *Service {
	return &Service{
		scores:        scores,
		rates:         rates,
		requestRepo:   requestRepo,
		creditRepo:    creditRepo,
		repaymentRepo: repaymentRepo,
		outboxRepo:    outboxRepo,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest validates the submission, resolves the score and applies
// the decision policy:
//
//	score <  500  -> rejected, no credit
//	500 <= s < 700 -> pending, manual review, no rate computed
//	score >= 700  -> rate + payment + limit check, approved, credit created
//
// Business rejections (insufficient score, amount over limit) come back as
// terminal outcomes with Status=rejected rather than errors; input and
// infrastructure failures come back as errors. Rejected attempts are
// persisted too, so every submission leaves an auditable row.
func (s *Service) CreateRequest(ctx context.Context, userID string, amount int64, durationMonths int, purpose string) (*DecisionOutcome, error) {
	if amount < MinRequestAmount {
		return nil, ErrInvalidAmount
	}
	if !rate.ValidDuration(durationMonths) {
		return nil, ErrInvalidDuration
	}

	score, err := s.scores.GetScore(ctx, userID)
	if err != nil {
		return nil, &ScoreUnavailableError{Err: err}
	}

	var purposePtr *string
	if purpose != "" {
		purposePtr = &purpose
	}

	if score.Display < scoreRejectBelow {
		return s.reject(ctx, userID, amount, durationMonths, purposePtr, score.Display, reasonInsufficientScore, msgRejected)
	}

	if score.Display < scoreAutoApprove {
		manual := DecisionManual
		request, err := s.requestRepo.Create(ctx, CreateRequestInput{
			UserID:            userID,
			Type:              TypeMicrocredit,
			RequestedAmount:   amount,
			RequestedDuration: durationMonths,
			Purpose:           purposePtr,
			ScoreAtRequest:    score.Display,
			Status:            StatusPending,
			DecisionKind:      &manual,
		})
		if err != nil {
			return nil, err
		}
		return &DecisionOutcome{
			Approved:  false,
			Status:    StatusPending,
			RequestID: request.ID,
			Message:   msgPending,
		}, nil
	}

	finalRate, eligible, err := s.rates.FinalRate(ctx, score.Display, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		// Should be unreachable with score >= 700; reject rather than
		// approve with no rate.
		return s.reject(ctx, userID, amount, durationMonths, purposePtr, score.Display, reasonInsufficientScore, msgRejected)
	}

	payment := rate.MonthlyPayment(amount, finalRate, durationMonths)

	if amount > score.CreditLimit {
		limitMsg := rejectionLimitMessage(score.CreditLimit)
		return s.reject(ctx, userID, amount, durationMonths, purposePtr, score.Display, limitMsg, limitMsg)
	}

	automatic := DecisionAutomatic
	request, err := s.requestRepo.Create(ctx, CreateRequestInput{
		UserID:              userID,
		Type:                TypeMicrocredit,
		RequestedAmount:     amount,
		RequestedDuration:   durationMonths,
		Purpose:             purposePtr,
		ScoreAtRequest:      score.Display,
		Status:              StatusApproved,
		DecisionKind:        &automatic,
		ApprovedAmount:      &amount,
		ApprovedRate:        &finalRate,
		ApprovedInstallment: &payment,
	})
	if err != nil {
		return nil, err
	}

	start := s.now()
	created, err := s.creditRepo.Create(ctx, CreateCreditInput{
		UserID:         userID,
		RequestID:      request.ID,
		Type:           TypeMicrocredit,
		Principal:      amount,
		MonthlyRate:    finalRate,
		DurationMonths: durationMonths,
		MonthlyPayment: payment,
		StartDate:      start,
		EndDate:        start.AddDate(0, durationMonths, 0),
		ApprovedAt:     start,
	})
	if err != nil {
		// The request row is already terminal. Flag it for the
		// reconciliation worker instead of leaving an approved request
		// with no credit behind.
		s.logger.Error("credit creation failed after request persisted",
			"request_id", request.ID, "user_id", userID, "err", err)
		if markErr := s.requestRepo.MarkNeedsReconciliation(ctx, request.ID); markErr != nil {
			s.logger.Error("failed to flag request for reconciliation", "request_id", request.ID, "err", markErr)
		}
		payload, _ := json.Marshal(map[string]any{"request_id": request.ID})
		if qErr := s.outboxRepo.Enqueue(ctx, OutboxTopicCreateCredit, payload); qErr != nil {
			s.logger.Error("failed to enqueue credit reconciliation", "request_id", request.ID, "err", qErr)
		}
		return &DecisionOutcome{
			Approved:       true,
			Status:         StatusApproved,
			RequestID:      request.ID,
			Message:        msgApproved,
			Reconciliation: true,
		}, nil
	}

	return &DecisionOutcome{
		Approved:  true,
		Status:    StatusApproved,
		RequestID: request.ID,
		CreditID:  &created.ID,
		Message:   msgApproved,
	}, nil
}

func (s *Service) reject(ctx context.Context, userID string, amount int64, durationMonths int, purpose *string, score int, reason, message string) (*DecisionOutcome, error) {
	request, err := s.requestRepo.Create(ctx, CreateRequestInput{
		UserID:            userID,
		Type:              TypeMicrocredit,
		RequestedAmount:   amount,
		RequestedDuration: durationMonths,
		Purpose:           purpose,
		ScoreAtRequest:    score,
		Status:            StatusRejected,
		RejectionReason:   &reason,
	})
	if err != nil {
		return nil, err
	}
	return &DecisionOutcome{
		Approved:  false,
		Status:    StatusRejected,
		RequestID: request.ID,
		Message:   message,
	}, nil
}

// ListCredits returns a user's credits, most recent first.
func (s *Service) ListCredits(ctx context.Context, userID string) ([]Credit, error) {
	return s.creditRepo.ListByUser(ctx, userID)
}

// ListRepayments returns the repayment rows of one credit.
func (s *Service) ListRepayments(ctx context.Context, creditID string) ([]Repayment, error) {
	return s.repaymentRepo.ListByCredit(ctx, creditID)
}

// ListRequestsByStatus backs the back-office view of pending manual
// reviews. Review resolution itself happens outside this service.
func (s *Service) ListRequestsByStatus(ctx context.Context, status string, limit, offset int32) ([]Request, error) {
	return s.requestRepo.ListByStatus(ctx, status, limit, offset)
}
