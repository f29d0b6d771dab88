package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

// ProcessPredictor invokes the pickled model through a Python subprocess:
// features as JSON on stdin, one JSON object on stdout. The model runtime
// sometimes writes warnings around the payload, so the JSON object is
// extracted from the surrounding text rather than parsed verbatim.
type ProcessPredictor struct {
	command string
	script  string
	timeout time.Duration
}

func NewProcessPredictor(command, script string, timeout time.Duration) *ProcessPredictor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ProcessPredictor{command: command, script: script, timeout: timeout}
}

func (p *ProcessPredictor) Predict(ctx context.Context, features operator.FeatureVector) (float64, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return 0, &PredictionError{Message: "Features invalides: " + err.Error()}
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.command, p.script)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return 0, &PredictionError{Message: "Délai de prédiction dépassé"}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "Python non disponible: " + err.Error()
		}
		return 0, &PredictionError{Message: msg}
	}

	return parsePrediction(stdout.String())
}

type predictionPayload struct {
	OK            bool     `json:"ok"`
	CreditScoring *float64 `json:"credit_scoring"`
	Error         string   `json:"error"`
}

func parsePrediction(out string) (float64, error) {
	jsonStr := extractJSONObject(out)
	if jsonStr == "" {
		jsonStr = strings.TrimSpace(out)
	}

	var result predictionPayload
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return 0, &PredictionError{Message: "Réponse Python invalide: " + strings.TrimSpace(out)}
	}
	if !result.OK || result.CreditScoring == nil {
		msg := result.Error
		if msg == "" {
			msg = "Prédiction invalide"
		}
		return 0, &PredictionError{Message: msg}
	}
	return *result.CreditScoring, nil
}

// extractJSONObject returns the substring from the first '{' to the last
// '}', tolerating log noise before and after the payload.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
