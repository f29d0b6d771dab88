package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	creditdomain "github.com/davidzea10/Rawbank/internal/domain/credit"
)

// Worker drains the outbox and finishes approved credit requests whose
// credit row failed to write at decision time. Jobs retry with a linear
// backoff up to maxAttempts, then park as failed for operator attention.

type OutboxJob struct {
	ID          int64
	Topic       string
	Payload     []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]OutboxJob, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

type RequestRepository interface {
	GetByID(ctx context.Context, id string) (*creditdomain.Request, error)
	ClearReconciliation(ctx context.Context, requestID string) error
}

type CreditRepository interface {
	Create(ctx context.Context, in creditdomain.CreateCreditInput) (*creditdomain.Credit, error)
	GetByRequestID(ctx context.Context, requestID string) (*creditdomain.Credit, error)
}

type Worker struct {
	outboxRepo   OutboxRepository
	requestRepo  RequestRepository
	creditRepo   CreditRepository
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewWorker(outboxRepo OutboxRepository, requestRepo RequestRepository, creditRepo CreditRepository) *Worker {
	return &Worker{
		outboxRepo:  outboxRepo,
		requestRepo: requestRepo,
		creditRepo:  creditRepo,
		maxAttempts: 5,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *Worker) RunOnce(ctx context.Context, batchSize int32) error {
	jobs, err := w.outboxRepo.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) processJob(ctx context.Context, job OutboxJob) error {
	switch job.Topic {
	case creditdomain.OutboxTopicCreateCredit:
		return w.processCreateCredit(ctx, job)
	default:
		return w.outboxRepo.MarkFailed(ctx, job.ID, "unsupported_topic")
	}
}

type createCreditPayload struct {
	RequestID string `json:"request_id"`
}

func (w *Worker) processCreateCredit(ctx context.Context, job OutboxJob) error {
	var payload createCreditPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return w.outboxRepo.MarkFailed(ctx, job.ID, "invalid_payload")
	}
	if payload.RequestID == "" {
		return w.outboxRepo.MarkFailed(ctx, job.ID, "missing_request_id")
	}

	request, err := w.requestRepo.GetByID(ctx, payload.RequestID)
	if err != nil {
		return w.handleJobError(ctx, job, err)
	}

	// Another process may have finished first.
	if existing, err := w.creditRepo.GetByRequestID(ctx, request.ID); err == nil && existing != nil {
		if err := w.requestRepo.ClearReconciliation(ctx, request.ID); err != nil {
			return w.handleJobError(ctx, job, err)
		}
		return w.outboxRepo.MarkDone(ctx, job.ID)
	} else if err != nil && !errors.Is(err, creditdomain.ErrCreditNotFound) {
		return w.handleJobError(ctx, job, err)
	}

	if request.Status != creditdomain.StatusApproved || request.ApprovedAmount == nil ||
		request.ApprovedRate == nil || request.ApprovedInstallment == nil {
		return w.outboxRepo.MarkFailed(ctx, job.ID, "request_not_reconcilable")
	}

	start := request.CreatedAt
	_, err = w.creditRepo.Create(ctx, creditdomain.CreateCreditInput{
		UserID:         request.UserID,
		RequestID:      request.ID,
		Type:           request.Type,
		Principal:      *request.ApprovedAmount,
		MonthlyRate:    *request.ApprovedRate,
		DurationMonths: request.RequestedDuration,
		MonthlyPayment: *request.ApprovedInstallment,
		StartDate:      start,
		EndDate:        start.AddDate(0, request.RequestedDuration, 0),
		ApprovedAt:     start,
	})
	if err != nil {
		return w.handleJobError(ctx, job, err)
	}

	if err := w.requestRepo.ClearReconciliation(ctx, request.ID); err != nil {
		return w.handleJobError(ctx, job, fmt.Errorf("clear_reconciliation: %w", err))
	}

	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) handleJobError(ctx context.Context, job OutboxJob, err error) error {
	msg := err.Error()
	if job.Attempts >= w.maxAttempts {
		return w.outboxRepo.MarkFailed(ctx, job.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(job.Attempts))
	return w.outboxRepo.MarkRetry(ctx, job.ID, next, msg)
}
