package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticParams is the serialized form of a logistic regression.
type LogisticParams struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Threshold float64   `json:"threshold"`
}

// LogisticRegression predicts churn when sigmoid(w·x + b) reaches the threshold.
type LogisticRegression struct {
	params LogisticParams
}

func NewLogisticRegression(params LogisticParams) (*LogisticRegression, error) {
	if len(params.Weights) != FeatureCount {
		return nil, fmt.Errorf("expected %d weights, got %d", FeatureCount, len(params.Weights))
	}
	for i, w := range params.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("weight %d is not finite", i)
		}
	}
	if params.Threshold == 0 {
		params.Threshold = 0.5
	}
	if params.Threshold <= 0 || params.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v must be inside (0,1)", params.Threshold)
	}
	params.Weights = append([]float64(nil), params.Weights...)
	return &LogisticRegression{params: params}, nil
}

func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if len(features) != len(lr.params.Weights) {
		return 0, 0, errors.New("feature count does not match weights")
	}
	z := lr.params.Intercept
	for i, x := range features {
		z += lr.params.Weights[i] * x
	}
	p := 1 / (1 + math.Exp(-z))
	if p >= lr.params.Threshold {
		return LabelChurn, p, nil
	}
	return LabelNoChurn, p, nil
}
