package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ArtifactFormat identifies the serialized model envelope understood by LoadArtifact.
const ArtifactFormat = "churn-model/v1"

const (
	ModelDecisionTree       = "decision_tree"
	ModelRandomForest       = "random_forest"
	ModelLogisticRegression = "logistic_regression"
)

// artifactFile is the on-disk envelope.
type artifactFile struct {
	Format        string          `json:"format"`
	SchemaVersion string          `json:"schema_version"`
	ModelType     string          `json:"model_type"`
	Features      []string        `json:"features"`
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	TrainedAt     string          `json:"trained_at"`
	Tree          []TreeNode      `json:"tree,omitempty"`
	Forest        [][]TreeNode    `json:"forest,omitempty"`
	Logistic      *LogisticParams `json:"logistic,omitempty"`
}

// ArtifactInfo describes a loaded artifact.
type ArtifactInfo struct {
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	ModelType     string    `json:"model_type"`
	SchemaVersion string    `json:"schema_version"`
	TrainedAt     string    `json:"trained_at,omitempty"`
	Path          string    `json:"path"`
	SHA256        string    `json:"sha256"`
	SizeBytes     int64     `json:"size_bytes"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Artifact is a loaded classifier. It is immutable and safe to share by pointer.
type Artifact struct {
	info  ArtifactInfo
	model Classifier
}

// LoadArtifact reads and validates a model artifact. Every failure is an *ArtifactLoadError.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		reason := "unreadable"
		if errors.Is(err, os.ErrNotExist) {
			reason = "file not found"
		}
		return nil, &ArtifactLoadError{Path: path, Reason: reason, Err: err}
	}

	var file artifactFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, &ArtifactLoadError{Path: path, Reason: "not a recognized model format", Err: err}
	}
	if file.Format != ArtifactFormat {
		return nil, &ArtifactLoadError{Path: path, Reason: fmt.Sprintf("unsupported format %q", file.Format)}
	}
	if file.SchemaVersion != SchemaVersion {
		return nil, &ArtifactLoadError{Path: path,
			Reason: fmt.Sprintf("schema version %q does not match %q", file.SchemaVersion, SchemaVersion)}
	}
	if err := checkFeatureOrder(file.Features); err != nil {
		return nil, &ArtifactLoadError{Path: path, Reason: "feature list does not match schema", Err: err}
	}

	model, err := buildClassifier(file)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Reason: "invalid " + file.ModelType + " model", Err: err}
	}

	sum := sha256.Sum256(payload)
	return &Artifact{
		info: ArtifactInfo{
			Name:          file.Name,
			Version:       file.Version,
			ModelType:     file.ModelType,
			SchemaVersion: file.SchemaVersion,
			TrainedAt:     file.TrainedAt,
			Path:          path,
			SHA256:        hex.EncodeToString(sum[:]),
			SizeBytes:     int64(len(payload)),
			LoadedAt:      time.Now().UTC(),
		},
		model: model,
	}, nil
}

// NewArtifact wraps an in-memory classifier, mainly for tests and tooling.
func NewArtifact(info ArtifactInfo, model Classifier) *Artifact {
	if info.SchemaVersion == "" {
		info.SchemaVersion = SchemaVersion
	}
	return &Artifact{info: info, model: model}
}

func buildClassifier(file artifactFile) (Classifier, error) {
	switch file.ModelType {
	case ModelDecisionTree:
		return NewDecisionTree(file.Tree)
	case ModelRandomForest:
		return NewRandomForest(file.Forest)
	case ModelLogisticRegression:
		if file.Logistic == nil {
			return nil, errors.New("missing logistic parameters")
		}
		return NewLogisticRegression(*file.Logistic)
	default:
		return nil, errors.New("unsupported model type")
	}
}

func checkFeatureOrder(features []string) error {
	names := FeatureNames()
	if len(features) != len(names) {
		return fmt.Errorf("expected %d features, got %d", len(names), len(features))
	}
	for i, name := range names {
		if features[i] != name {
			return fmt.Errorf("position %d: expected %q, got %q", i, name, features[i])
		}
	}
	return nil
}

// Info returns the artifact's metadata.
func (a *Artifact) Info() ArtifactInfo {
	return a.info
}

// Predict classifies one encoded record.
func (a *Artifact) Predict(v Vector) (int, float64, error) {
	return a.model.Predict(v[:])
}

// PredictBatch classifies every row in one call and returns labels in input order.
// Rows that are not exactly FeatureCount wide fail the whole call.
func (a *Artifact) PredictBatch(rows [][]float64) ([]int, error) {
	for i, row := range rows {
		if len(row) != FeatureCount {
			return nil, &SchemaMismatchError{
				Reason:   fmt.Sprintf("row %d has the wrong width", i+1),
				Expected: FeatureCount,
				Got:      len(row),
			}
		}
	}
	labels := make([]int, len(rows))
	for i, row := range rows {
		label, _, err := a.model.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i+1, err)
		}
		labels[i] = label
	}
	return labels, nil
}
