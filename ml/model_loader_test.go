package ml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, artifact map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func baseArtifact(modelType string) map[string]interface{} {
	return map[string]interface{}{
		"format":         ArtifactFormat,
		"schema_version": SchemaVersion,
		"model_type":     modelType,
		"features":       FeatureNames(),
		"name":           "test",
		"version":        "1",
	}
}

func leaf(label int) TreeNode {
	return TreeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: label, IsLeaf: true}
}

func TestLoadArtifact(t *testing.T) {
	artifact, err := LoadArtifact("testdata/churn_tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := artifact.Info()
	if info.ModelType != ModelDecisionTree {
		t.Fatalf("unexpected model type %q", info.ModelType)
	}
	if info.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version %q", info.SchemaVersion)
	}
	if len(info.SHA256) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", info.SHA256)
	}
	if info.LoadedAt.IsZero() {
		t.Fatal("expected load time")
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "absent.json"))
	var loadErr *ArtifactLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ArtifactLoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadArtifactRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a map[string]interface{})
	}{
		{"wrong format", func(a map[string]interface{}) { a["format"] = "pickle" }},
		{"wrong schema version", func(a map[string]interface{}) { a["schema_version"] = "telco-churn/v0" }},
		{"reordered features", func(a map[string]interface{}) {
			names := FeatureNames()
			names[0], names[1] = names[1], names[0]
			a["features"] = names
		}},
		{"short feature list", func(a map[string]interface{}) { a["features"] = FeatureNames()[:18] }},
		{"unknown model type", func(a map[string]interface{}) { a["model_type"] = "svm" }},
		{"empty tree", func(a map[string]interface{}) { a["tree"] = []TreeNode{} }},
		{"child out of range", func(a map[string]interface{}) {
			a["tree"] = []TreeNode{{FeatureIdx: 4, Threshold: 10, LeftChild: 1, RightChild: 5}, leaf(0)}
		}},
		{"feature out of range", func(a map[string]interface{}) {
			a["tree"] = []TreeNode{{FeatureIdx: 19, Threshold: 1, LeftChild: 1, RightChild: 2}, leaf(0), leaf(1)}
		}},
		{"non binary label", func(a map[string]interface{}) { a["tree"] = []TreeNode{leaf(2)} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := baseArtifact(ModelDecisionTree)
			artifact["tree"] = []TreeNode{leaf(0)}
			tt.mutate(artifact)

			_, err := LoadArtifact(writeArtifact(t, artifact))
			var loadErr *ArtifactLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected ArtifactLoadError, got %v", err)
			}
		})
	}
}

func TestLoadArtifactNotJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customer.pickle")
	if err := os.WriteFile(path, []byte{0x80, 0x04, 0x95}, 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadArtifact(path)
	var loadErr *ArtifactLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ArtifactLoadError, got %v", err)
	}
}

func TestLoadLogisticArtifact(t *testing.T) {
	weights := make([]float64, FeatureCount)
	weights[14] = -2 // longer contracts churn less
	weights[7] = 1.5
	artifact := baseArtifact(ModelLogisticRegression)
	artifact["logistic"] = LogisticParams{Weights: weights, Intercept: -1}

	loaded, err := LoadArtifact(writeArtifact(t, artifact))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fiber Vector
	fiber[7] = 2
	label, score, err := loaded.Predict(fiber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelChurn || score < 0.5 {
		t.Fatalf("expected churn, got label=%d score=%v", label, score)
	}

	var twoYear Vector
	twoYear[14] = 2
	label, _, err = loaded.Predict(twoYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelNoChurn {
		t.Fatalf("expected no churn, got %d", label)
	}
}

func TestLoadForestArtifact(t *testing.T) {
	split := func(feature int, threshold float64) []TreeNode {
		return []TreeNode{{FeatureIdx: feature, Threshold: threshold, LeftChild: 1, RightChild: 2}, leaf(0), leaf(1)}
	}
	artifact := baseArtifact(ModelRandomForest)
	artifact["forest"] = [][]TreeNode{split(7, 1.5), split(4, 0), split(17, 80)}

	loaded, err := LoadArtifact(writeArtifact(t, artifact))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v Vector
	v[4] = 10 // tenure always votes churn in the second tree
	v[7] = 2
	label, score, err := loaded.Predict(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelChurn {
		t.Fatalf("expected churn with 2 of 3 votes, got %d", label)
	}
	if score < 0.66 || score > 0.67 {
		t.Fatalf("unexpected vote share %v", score)
	}
}

func TestPredictBatchWidth(t *testing.T) {
	artifact, err := LoadArtifact("testdata/churn_tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = artifact.PredictBatch([][]float64{make([]float64, FeatureCount), make([]float64, 18)})
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
}
