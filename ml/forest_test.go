package ml

import "testing"

func TestRandomForestTieIsNoChurn(t *testing.T) {
	forest, err := NewRandomForest([][]TreeNode{{leaf(1)}, {leaf(0)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, score, err := forest.Predict(make([]float64, FeatureCount))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelNoChurn {
		t.Fatalf("expected tie to resolve to no churn, got %d", label)
	}
	if score != 0.5 {
		t.Fatalf("expected vote share 0.5, got %v", score)
	}
}

func TestLogisticRegressionValidation(t *testing.T) {
	if _, err := NewLogisticRegression(LogisticParams{Weights: []float64{1, 2}}); err == nil {
		t.Fatal("expected error for short weight vector")
	}
	if _, err := NewLogisticRegression(LogisticParams{Weights: make([]float64, FeatureCount), Threshold: 1.5}); err == nil {
		t.Fatal("expected error for threshold outside (0,1)")
	}
}

func TestDecisionTreeRejectsBackwardChild(t *testing.T) {
	nodes := []TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: 1, Threshold: 0.5, LeftChild: 0, RightChild: 2},
		leaf(1),
	}
	if _, err := NewDecisionTree(nodes); err == nil {
		t.Fatal("expected error for a child pointing back to its ancestor")
	}
}
