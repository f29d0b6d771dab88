package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	creditdomain "github.com/davidzea10/Rawbank/internal/domain/credit"
	ratedomain "github.com/davidzea10/Rawbank/internal/domain/rate"
)

type CreditService interface {
	CreateRequest(ctx context.Context, userID string, amount int64, durationMonths int, purpose string) (*creditdomain.DecisionOutcome, error)
	ListCredits(ctx context.Context, userID string) ([]creditdomain.Credit, error)
	ListRepayments(ctx context.Context, creditID string) ([]creditdomain.Repayment, error)
	ListRequestsByStatus(ctx context.Context, status string, limit, offset int32) ([]creditdomain.Request, error)
}

type SimulationService interface {
	Simulate(ctx context.Context, userID string, amount int64, durationMonths int, scoreOverride *int) (*ratedomain.Simulation, error)
}

type CreditHandler struct {
	creditService CreditService
	simulations   SimulationService
}

func NewCreditHandler(creditService CreditService, simulations SimulationService) *CreditHandler {
	return &CreditHandler{creditService: creditService, simulations: simulations}
}

type createRequestBody struct {
	Amount   int64  `json:"amount"`
	Duration int    `json:"duration"`
	Purpose  string `json:"purpose"`
}

func (h *CreditHandler) CreateRequest(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}

	var req createRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": creditdomain.ErrInvalidAmount.Error()})
		return
	}

	outcome, err := h.creditService.CreateRequest(c.Request.Context(), userID, req.Amount, req.Duration, req.Purpose)
	if err != nil {
		var scoreErr *creditdomain.ScoreUnavailableError
		switch {
		case errors.Is(err, creditdomain.ErrInvalidAmount), errors.Is(err, creditdomain.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
		case errors.As(err, &scoreErr):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": scoreErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Erreur interne"})
		}
		return
	}

	if outcome.Status == creditdomain.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":        false,
			"message":   outcome.Message,
			"demandeId": outcome.RequestID,
			"approved":  false,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":        true,
		"message":   outcome.Message,
		"demandeId": outcome.RequestID,
		"creditId":  outcome.CreditID,
		"approved":  outcome.Approved,
	})
}

type simulateBody struct {
	Amount   int64 `json:"amount"`
	Duration int   `json:"duration"`
	Score    *int  `json:"score"`
}

func (h *CreditHandler) Simulate(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}

	var req simulateBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": ratedomain.ErrInvalidDuration.Error()})
		return
	}

	result, err := h.simulations.Simulate(c.Request.Context(), userID, req.Amount, req.Duration, req.Score)
	if err != nil {
		if errors.Is(err, ratedomain.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Erreur interne"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CreditHandler) ListCredits(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}

	items, err := h.creditService.ListCredits(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_credits_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "credits": items})
}

func (h *CreditHandler) ListRepayments(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}
	creditID := strings.TrimSpace(c.Param("creditId"))
	if creditID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_credit_id"})
		return
	}

	items, err := h.creditService.ListRepayments(c.Request.Context(), creditID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_repayments_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "remboursements": items})
}

// ListRequests is the back-office feed of credit requests, defaulting to
// the manual-review queue.
func (h *CreditHandler) ListRequests(c *gin.Context) {
	status := strings.TrimSpace(c.DefaultQuery("status", creditdomain.StatusPending))
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)

	items, err := h.creditService.ListRequestsByStatus(c.Request.Context(), status, int32(limit), int32(offset))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_requests_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
