package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

type resolverMock struct {
	record *operator.Record
	err    error
}

func (m *resolverMock) ResolveFeatures(_ context.Context, _ string) (*operator.Record, error) {
	return m.record, m.err
}

type predictorMock struct {
	raw float64
	err error
}

func (m *predictorMock) Predict(_ context.Context, _ operator.FeatureVector) (float64, error) {
	return m.raw, m.err
}

func TestResultFromRaw(t *testing.T) {
	cases := []struct {
		raw     float64
		display int
		limit   int64
	}{
		{raw: 0, display: 0, limit: 0},
		{raw: 0.5, display: 500, limit: 150000},
		{raw: 0.7345, display: 735, limit: 220500},
		{raw: 0.9996, display: 1000, limit: 300000},
		{raw: 1, display: 1000, limit: 300000},
	}
	for _, tc := range cases {
		result := ResultFromRaw(tc.raw)
		if result.Display != tc.display {
			t.Fatalf("raw %v: display = %d, want %d", tc.raw, result.Display, tc.display)
		}
		if result.CreditLimit != tc.limit {
			t.Fatalf("raw %v: limit = %d, want %d", tc.raw, result.CreditLimit, tc.limit)
		}
		if result.Source.Kind != SourceResolved {
			t.Fatalf("raw %v: expected resolved source", tc.raw)
		}
	}
}

func TestGetScorePropagatesLookupError(t *testing.T) {
	lookupErr := &operator.RecordNotFoundError{Number: "243812345678"}
	svc := NewService(&resolverMock{err: lookupErr}, &predictorMock{})

	_, err := svc.GetScore(context.Background(), "u1")
	var notFound *operator.RecordNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RecordNotFoundError, got %v", err)
	}
}

func TestGetScoreWrapsPredictorFailure(t *testing.T) {
	svc := NewService(
		&resolverMock{record: &operator.Record{PhoneNumber: "243812345678"}},
		&predictorMock{err: &PredictionError{Message: "Prédiction invalide"}},
	)

	_, err := svc.GetScore(context.Background(), "u1")
	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("expected PredictionError, got %v", err)
	}
}

func TestGetScoreSuccess(t *testing.T) {
	svc := NewService(
		&resolverMock{record: &operator.Record{PhoneNumber: "243812345678"}},
		&predictorMock{raw: 0.82},
	)

	result, err := svc.GetScore(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Display != 820 || result.CreditLimit != 246000 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestParsePrediction(t *testing.T) {
	raw, err := parsePrediction(`{"ok": true, "credit_scoring": 0.7345}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != 0.7345 {
		t.Fatalf("raw = %v, want 0.7345", raw)
	}
}

func TestParsePredictionToleratesLogNoise(t *testing.T) {
	out := "WARNING: sklearn version mismatch\n{\"ok\": true, \"credit_scoring\": 0.5}\ndone\n"
	raw, err := parsePrediction(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != 0.5 {
		t.Fatalf("raw = %v, want 0.5", raw)
	}
}

func TestParsePredictionModelError(t *testing.T) {
	_, err := parsePrediction(`{"ok": false, "error": "modele absent"}`)
	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("expected PredictionError, got %v", err)
	}
	if predErr.Message != "modele absent" {
		t.Fatalf("message = %q", predErr.Message)
	}
}

func TestParsePredictionMissingField(t *testing.T) {
	_, err := parsePrediction(`{"ok": true}`)
	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("expected PredictionError, got %v", err)
	}
	if predErr.Message != "Prédiction invalide" {
		t.Fatalf("message = %q", predErr.Message)
	}
}

func TestParsePredictionGarbage(t *testing.T) {
	_, err := parsePrediction("Traceback (most recent call last): ...")
	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("expected PredictionError, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	if got := extractJSONObject(`noise {"a":1} tail`); got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
	if got := extractJSONObject("no braces here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := extractJSONObject("} inverted {"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
