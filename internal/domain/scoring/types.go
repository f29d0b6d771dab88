package scoring

import (
	"context"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

const (
	// DisplayScale maps the raw model probability [0,1] to the 0-1000
	// score shown to users.
	DisplayScale = 1000
	// CreditCeiling is the maximum credit limit, granted at a perfect
	// score, in CDF.
	CreditCeiling = 300000
)

type SourceKind string

const (
	SourceResolved       SourceKind = "resolved"
	SourceDefaultAssumed SourceKind = "default_assumed"
)

// Source distinguishes a score actually computed from the model from a
// fallback value assumed on lookup failure, so callers never mistake one
// for the other.
type Source struct {
	Kind   SourceKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

// Result is derived on every request, never persisted. Display and
// CreditLimit are always jointly consistent with Raw:
// Display = round(Raw*1000), CreditLimit = round(Display/1000 * 300000).
type Result struct {
	Raw         float64 `json:"score_raw"`
	Display     int     `json:"score"`
	CreditLimit int64   `json:"creditLimit"`
	Source      Source  `json:"source"`
}

// Predictor is the injected scoring capability: a subprocess model, an
// in-process model or a network call all satisfy the same contract.
type Predictor interface {
	Predict(ctx context.Context, features operator.FeatureVector) (float64, error)
}

// PredictionError normalizes every predictor failure mode: process
// unavailable, non-zero exit, malformed payload, missing numeric field.
type PredictionError struct {
	Message string
}

func (e *PredictionError) Error() string {
	return e.Message
}

type FeatureResolver interface {
	ResolveFeatures(ctx context.Context, userID string) (*operator.Record, error)
}
