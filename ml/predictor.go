package ml

import (
	"errors"
	"fmt"

	"churnscope/table"
)

const (
	ChurnLabel    = "Churn"
	NoChurnLabel  = "Not likely to Churn"
	PredictionCol = "Churn_Prediction"
)

// PredictionResult is the outcome of one single-record prediction.
type PredictionResult struct {
	Churn bool    `json:"churn"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Predictor runs the schema and an artifact together. The artifact is injected at
// construction so tests can substitute their own classifier.
type Predictor struct {
	schema   *Schema
	artifact *Artifact
}

func NewPredictor(artifact *Artifact) *Predictor {
	return &Predictor{schema: ChurnSchema(), artifact: artifact}
}

// Artifact returns the artifact the predictor serves.
func (p *Predictor) Artifact() *Artifact {
	return p.artifact
}

// Predict encodes one record and classifies it.
func (p *Predictor) Predict(record FeatureRecord) (*PredictionResult, error) {
	vector, err := p.schema.Encode(record)
	if err != nil {
		return nil, err
	}
	return p.PredictVector(vector)
}

// PredictVector classifies an already encoded record.
func (p *Predictor) PredictVector(vector Vector) (*PredictionResult, error) {
	label, score, err := p.artifact.Predict(vector)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return newResult(label, score)
}

func newResult(label int, score float64) (*PredictionResult, error) {
	switch label {
	case LabelChurn:
		return &PredictionResult{Churn: true, Label: ChurnLabel, Score: score}, nil
	case LabelNoChurn:
		return &PredictionResult{Churn: false, Label: NoChurnLabel, Score: score}, nil
	default:
		return nil, fmt.Errorf("model returned unexpected label %d", label)
	}
}

// BatchSummary counts the outcome of a batch prediction.
type BatchSummary struct {
	Rows    int `json:"rows"`
	Churn   int `json:"churn"`
	NoChurn int `json:"no_churn"`
}

// PredictTable validates the header, encodes every row and classifies the whole table in
// one call. The returned table is the input plus a Churn_Prediction column of "Yes"/"No";
// the input table is left untouched.
func (p *Predictor) PredictTable(t *table.Table) (*table.Table, BatchSummary, error) {
	var summary BatchSummary
	if err := p.CheckColumns(t.Columns); err != nil {
		return nil, summary, err
	}

	rows, err := p.EncodeTable(t)
	if err != nil {
		return nil, summary, err
	}

	labels, err := p.artifact.PredictBatch(rows)
	if err != nil {
		return nil, summary, err
	}

	values := make([]string, len(labels))
	for i, label := range labels {
		switch label {
		case LabelChurn:
			values[i] = "Yes"
			summary.Churn++
		case LabelNoChurn:
			values[i] = "No"
			summary.NoChurn++
		default:
			return nil, BatchSummary{}, fmt.Errorf("row %d: model returned unexpected label %d", i+1, label)
		}
	}
	summary.Rows = len(labels)

	out, err := t.WithColumn(PredictionCol, values)
	if err != nil {
		return nil, BatchSummary{}, err
	}
	return out, summary, nil
}

// CheckColumns requires exactly the schema columns, in schema order. Canonical names and
// aliases are both accepted.
func (p *Predictor) CheckColumns(columns []string) error {
	fields := p.schema.Fields
	for i, field := range fields {
		if i >= len(columns) {
			return &SchemaMismatchError{Reason: "missing required column", Column: field.Name,
				Expected: len(fields), Got: len(columns)}
		}
		idx := p.schema.Index(columns[i])
		if idx == i {
			continue
		}
		if p.indexOfField(columns, i) < 0 {
			return &SchemaMismatchError{Reason: "missing required column", Column: field.Name,
				Expected: len(fields), Got: len(columns)}
		}
		if idx < 0 {
			return &SchemaMismatchError{Reason: "unexpected column", Column: columns[i]}
		}
		return &SchemaMismatchError{Reason: fmt.Sprintf("column out of order, expected %q at position %d", field.Name, i+1),
			Column: columns[i]}
	}
	if len(columns) > len(fields) {
		return &SchemaMismatchError{Reason: "unexpected column", Column: columns[len(fields)],
			Expected: len(fields), Got: len(columns)}
	}
	return nil
}

func (p *Predictor) indexOfField(columns []string, field int) int {
	for i, c := range columns {
		if p.schema.Index(c) == field {
			return i
		}
	}
	return -1
}

// EncodeTable encodes every row in order, tagging value errors with their 1-based row.
func (p *Predictor) EncodeTable(t *table.Table) ([][]float64, error) {
	rows := make([][]float64, len(t.Rows))
	for i, cells := range t.Rows {
		vector, err := p.schema.EncodeValues(cells)
		if err != nil {
			var fieldErr *InvalidFieldValueError
			if errors.As(err, &fieldErr) {
				fieldErr.Row = i + 1
				return nil, fieldErr
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		row := make([]float64, FeatureCount)
		copy(row, vector[:])
		rows[i] = row
	}
	return rows, nil
}
