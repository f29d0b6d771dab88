package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	operatordomain "github.com/davidzea10/Rawbank/internal/domain/operator"
)

type OperatorService interface {
	CheckNumber(ctx context.Context, phoneNumber string) (*operatordomain.Record, bool, error)
}

type OperatorHandler struct {
	operatorService OperatorService
}

func NewOperatorHandler(operatorService OperatorService) *OperatorHandler {
	return &OperatorHandler{operatorService: operatorService}
}

// CheckNumber powers the signup form's live eligibility check: a number
// absent from the dataset cannot open an account.
func (h *OperatorHandler) CheckNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "numero_telephone requis", "existe": false})
		return
	}

	record, exists, err := h.operatorService.CheckNumber(c.Request.Context(), number)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error(), "existe": false})
		return
	}

	if !exists {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"existe":  false,
			"message": "Numéro non trouvé dans la base opérateurs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"existe":  true,
		"message": "Numéro trouvé, inscription autorisée",
		"donnees": record,
	})
}
