package ml

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnscope/table"
)

func newTestPredictor(t *testing.T) *Predictor {
	t.Helper()
	artifact, err := LoadArtifact("testdata/churn_tree.json")
	require.NoError(t, err)
	return NewPredictor(artifact)
}

func readThreeRows(t *testing.T) *table.Table {
	t.Helper()
	f, err := os.Open("testdata/three_rows.csv")
	require.NoError(t, err)
	defer f.Close()
	tbl, err := table.ReadCSV(f, "")
	require.NoError(t, err)
	return tbl
}

func TestPredictDefaultRecord(t *testing.T) {
	p := newTestPredictor(t)

	result, err := p.Predict(DefaultRecord())
	require.NoError(t, err)
	assert.False(t, result.Churn)
	assert.Equal(t, NoChurnLabel, result.Label)
	assert.InDelta(t, 0.46, result.Score, 1e-9)
}

func TestPredictHighRiskRecord(t *testing.T) {
	p := newTestPredictor(t)

	record := DefaultRecord()
	record.Tenure = 3
	record.InternetService = "Fiber Optic"
	record.MonthlyCharges = 89.1

	result, err := p.Predict(record)
	require.NoError(t, err)
	assert.True(t, result.Churn)
	assert.Equal(t, ChurnLabel, result.Label)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := newTestPredictor(t)
	record := DefaultRecord()
	record.Contract = "One Year"

	first, err := p.Predict(record)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := p.Predict(record)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictRejectsInvalidRecord(t *testing.T) {
	p := newTestPredictor(t)
	record := DefaultRecord()
	record.Tenure = 0

	_, err := p.Predict(record)
	var fieldErr *InvalidFieldValueError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "tenure", fieldErr.Field)
	assert.Zero(t, fieldErr.Row)
}

func TestPredictTable(t *testing.T) {
	p := newTestPredictor(t)
	in := readThreeRows(t)

	out, summary, err := p.PredictTable(in)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Rows: 3, Churn: 1, NoChurn: 2}, summary)
	require.Len(t, out.Columns, FeatureCount+1)
	assert.Equal(t, PredictionCol, out.Columns[FeatureCount])

	predictions, ok := out.Column(PredictionCol)
	require.True(t, ok)
	assert.Equal(t, []string{"Yes", "No", "No"}, predictions)

	// input rows keep their values and order
	for i, row := range out.Rows {
		assert.Equal(t, in.Rows[i], row[:FeatureCount])
	}
	assert.Len(t, in.Columns, FeatureCount)
}

func TestPredictTableMissingColumn(t *testing.T) {
	p := newTestPredictor(t)
	in := readThreeRows(t)

	columns := append([]string(nil), in.Columns[:4]...)
	columns = append(columns, in.Columns[5:]...)
	rows := make([][]string, len(in.Rows))
	for i, row := range in.Rows {
		rows[i] = append(append([]string(nil), row[:4]...), row[5:]...)
	}
	dropped, err := table.New(columns, rows)
	require.NoError(t, err)

	out, _, err := p.PredictTable(dropped)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "tenure", mismatch.Column)
	assert.Nil(t, out)
}

func TestCheckColumns(t *testing.T) {
	p := newTestPredictor(t)
	names := FeatureNames()

	aliases := append([]string(nil), names...)
	aliases[1] = "SeniorCitizen"
	aliases[17] = "Monthly Charges"
	assert.NoError(t, p.CheckColumns(aliases))

	swapped := append([]string(nil), names...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, p.CheckColumns(swapped), &mismatch)
	assert.Contains(t, mismatch.Reason, "out of order")

	extra := append(append([]string(nil), names...), "customerID")
	require.ErrorAs(t, p.CheckColumns(extra), &mismatch)
	assert.Equal(t, "customerID", mismatch.Column)

	renamed := append([]string(nil), names...)
	renamed[18] = "total"
	require.ErrorAs(t, p.CheckColumns(renamed), &mismatch)
	assert.Equal(t, "missing required column", mismatch.Reason)
}

func TestPredictTableInvalidCell(t *testing.T) {
	p := newTestPredictor(t)
	in := readThreeRows(t)
	in.Rows[1][4] = "120"

	_, _, err := p.PredictTable(in)
	var fieldErr *InvalidFieldValueError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, 2, fieldErr.Row)
	assert.Equal(t, "tenure", fieldErr.Field)
}

func TestPredictTableRejectsHugeCodes(t *testing.T) {
	p := newTestPredictor(t)

	tests := []struct {
		row, col int
		cell     string
		field    string
	}{
		{0, 0, "Inf", "gender"},
		{1, 6, "1e300", "multiple_lines"},
		{2, 6, "9.3e18", "multiple_lines"},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			in := readThreeRows(t)
			in.Rows[tt.row][tt.col] = tt.cell

			out, _, err := p.PredictTable(in)
			var fieldErr *InvalidFieldValueError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.row+1, fieldErr.Row)
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.Equal(t, tt.cell, fieldErr.Value)
			assert.Nil(t, out)
		})
	}
}

func TestPredictTableLabelsOnly(t *testing.T) {
	p := newTestPredictor(t)
	in := readThreeRows(t)
	in.Rows[0][7] = "DSL"
	in.Rows[2][14] = "month-to-month"

	out, _, err := p.PredictTable(in)
	require.NoError(t, err)
	predictions, _ := out.Column(PredictionCol)
	for _, v := range predictions {
		assert.Contains(t, []string{"Yes", "No"}, v)
	}
}

type fixedClassifier struct{ label int }

func (c fixedClassifier) Predict([]float64) (int, float64, error) {
	return c.label, float64(c.label), nil
}

func TestPredictorRejectsUnknownLabel(t *testing.T) {
	p := NewPredictor(NewArtifact(ArtifactInfo{Name: "bad"}, fixedClassifier{label: 7}))
	_, err := p.Predict(DefaultRecord())
	require.Error(t, err)

	var fieldErr *InvalidFieldValueError
	assert.False(t, errors.As(err, &fieldErr))
}
