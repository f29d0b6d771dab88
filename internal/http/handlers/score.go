package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/davidzea10/Rawbank/internal/auth"
	operatordomain "github.com/davidzea10/Rawbank/internal/domain/operator"
	"github.com/davidzea10/Rawbank/internal/domain/scoring"
)

type ScoreService interface {
	GetScore(ctx context.Context, userID string) (*scoring.Result, error)
}

type UserDirectory interface {
	PhoneNumberByUserID(ctx context.Context, userID string) (string, error)
}

type ScoreHandler struct {
	scoreService    ScoreService
	users           UserDirectory
	operatorService OperatorService
}

func NewScoreHandler(scoreService ScoreService, users UserDirectory, operatorService OperatorService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService, users: users, operatorService: operatorService}
}

func (h *ScoreHandler) GetScore(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}

	result, err := h.scoreService.GetScore(c.Request.Context(), userID)
	if err != nil {
		var predErr *scoring.PredictionError
		if errors.As(err, &predErr) {
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "message": predErr.Message})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"score":       result.Display,
		"score_raw":   result.Raw,
		"creditLimit": result.CreditLimit,
		"source":      result.Source,
	})
}

// Diagnose reports whether the user and its normalized number resolve in
// the operator dataset, without running a prediction.
func (h *ScoreHandler) Diagnose(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if !sameUserOrAdmin(c, userID) {
		return
	}

	phone, err := h.users.PhoneNumberByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"utilisateur":      nil,
			"dans_operateurs":  false,
			"numero_normalise": nil,
		})
		return
	}

	normalized := operatordomain.NormalizePhone(phone)
	inOperators := false
	if normalized != "" {
		_, inOperators, _ = h.operatorService.CheckNumber(c.Request.Context(), normalized)
	}

	c.JSON(http.StatusOK, gin.H{
		"utilisateur":      gin.H{"id": userID, "numero_telephone": phone},
		"dans_operateurs":  inOperators,
		"numero_normalise": normalized,
	})
}

// sameUserOrAdmin rejects access to another user's resources unless the
// caller holds the admin role. Writes the response on failure.
func sameUserOrAdmin(c *gin.Context, userID string) bool {
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return false
	}
	if c.GetString("user_role") == auth.RoleAdmin {
		return true
	}
	if c.GetString("user_id") != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}
