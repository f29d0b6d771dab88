package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/davidzea10/Rawbank/internal/auth"
	creditdomain "github.com/davidzea10/Rawbank/internal/domain/credit"
	ratedomain "github.com/davidzea10/Rawbank/internal/domain/rate"
)

type creditServiceMock struct {
	outcome *creditdomain.DecisionOutcome
	err     error
}

func (m *creditServiceMock) CreateRequest(_ context.Context, _ string, _ int64, _ int, _ string) (*creditdomain.DecisionOutcome, error) {
	return m.outcome, m.err
}

func (m *creditServiceMock) ListCredits(_ context.Context, _ string) ([]creditdomain.Credit, error) {
	return []creditdomain.Credit{}, nil
}

func (m *creditServiceMock) ListRepayments(_ context.Context, _ string) ([]creditdomain.Repayment, error) {
	return []creditdomain.Repayment{}, nil
}

func (m *creditServiceMock) ListRequestsByStatus(_ context.Context, _ string, _ int32, _ int32) ([]creditdomain.Request, error) {
	return []creditdomain.Request{}, nil
}

type simulationServiceMock struct {
	result *ratedomain.Simulation
	err    error
}

func (m *simulationServiceMock) Simulate(_ context.Context, _ string, _ int64, _ int, _ *int) (*ratedomain.Simulation, error) {
	return m.result, m.err
}

func newCreditTestRouter(h *CreditHandler, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	})
	r.POST("/v1/users/:userId/credits/request", h.CreateRequest)
	r.POST("/v1/users/:userId/credits/simulate", h.Simulate)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateRequestHandlerApproved(t *testing.T) {
	creditID := "cred-1"
	h := NewCreditHandler(&creditServiceMock{outcome: &creditdomain.DecisionOutcome{
		Approved:  true,
		Status:    creditdomain.StatusApproved,
		RequestID: "req-1",
		CreditID:  &creditID,
		Message:   "Crédit accordé",
	}}, &simulationServiceMock{})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u1/credits/request", `{"amount":150000,"duration":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["ok"] != true || body["demandeId"] != "req-1" || body["creditId"] != "cred-1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateRequestHandlerRejectedOutcome(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{outcome: &creditdomain.DecisionOutcome{
		Approved:  false,
		Status:    creditdomain.StatusRejected,
		RequestID: "req-2",
		Message:   "Demande refusée (score insuffisant)",
	}}, &simulationServiceMock{})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u1/credits/request", `{"amount":50000,"duration":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["ok"] != false || body["demandeId"] != "req-2" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateRequestHandlerInvalidAmount(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{err: creditdomain.ErrInvalidAmount}, &simulationServiceMock{})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u1/credits/request", `{"amount":5000,"duration":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Montant invalide") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateRequestHandlerForbiddenForOtherUser(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{}, &simulationServiceMock{})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u2/credits/request", `{"amount":150000,"duration":3}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateRequestHandlerAdminActsForAnyUser(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{outcome: &creditdomain.DecisionOutcome{
		Approved:  false,
		Status:    creditdomain.StatusPending,
		RequestID: "req-3",
		Message:   "Demande enregistrée, validation manuelle en cours",
	}}, &simulationServiceMock{})
	r := newCreditTestRouter(h, "admin-1", auth.RoleAdmin)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u2/credits/request", `{"amount":150000,"duration":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSimulateHandlerInvalidDuration(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{}, &simulationServiceMock{err: ratedomain.ErrInvalidDuration})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u1/credits/simulate", `{"amount":150000,"duration":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Durée invalide") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSimulateHandlerReturnsPreview(t *testing.T) {
	h := NewCreditHandler(&creditServiceMock{}, &simulationServiceMock{result: &ratedomain.Simulation{
		OK:             true,
		Score:          820,
		FinalRate:      3.5,
		DurationMonths: 3,
		MonthlyPayment: 52741,
	}})
	r := newCreditTestRouter(h, "u1", auth.RoleUser)

	rec := doJSON(t, r, http.MethodPost, "/v1/users/u1/credits/simulate", `{"amount":150000,"duration":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["tauxFinal"] != 3.5 || body["mensualite"] != float64(52741) {
		t.Fatalf("unexpected body: %v", body)
	}
}
