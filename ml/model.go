package ml

// Classifier is a trained binary churn classifier. Implementations are immutable after
// loading, so one value may serve any number of concurrent requests.
type Classifier interface {
	// Predict returns the class label (1 churn, 0 no churn) and the churn score in [0,1].
	Predict(features []float64) (int, float64, error)
}

const (
	LabelNoChurn = 0
	LabelChurn   = 1
)
