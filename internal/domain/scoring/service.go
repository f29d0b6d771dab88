package scoring

import (
	"context"
	"math"
)

// Service turns a user's behavioral features into a display score and a
// proportional credit limit.
type Service struct {
	features  FeatureResolver
	predictor Predictor
}

func NewService(features FeatureResolver, predictor Predictor) *Service {
	return &Service{features: features, predictor: predictor}
}

// GetScore resolves the feature record and runs the prediction. Lookup
// errors propagate unchanged (their messages are already user-diagnosable);
// predictor failures surface as *PredictionError.
func (s *Service) GetScore(ctx context.Context, userID string) (*Result, error) {
	record, err := s.features.ResolveFeatures(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.predictor.Predict(ctx, record.Features)
	if err != nil {
		return nil, err
	}

	return ResultFromRaw(raw), nil
}

// ResultFromRaw applies the fixed display and ceiling formulas.
func ResultFromRaw(raw float64) *Result {
	display := int(math.Round(raw * DisplayScale))
	limit := int64(math.Round(float64(display) / DisplayScale * CreditCeiling))
	return &Result{
		Raw:         raw,
		Display:     display,
		CreditLimit: limit,
		Source:      Source{Kind: SourceResolved},
	}
}
