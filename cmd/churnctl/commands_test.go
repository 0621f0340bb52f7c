package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnscope/ml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--model", "../../models/churn_tree.json"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "payment_method")
	assert.Contains(t, out, "1..72")
	assert.Equal(t, ml.FeatureCount+1, strings.Count(out, "\n"))
}

func TestPredictCommand(t *testing.T) {
	out, err := execute(t, "predict", "--tenure", "3", "--internet-service", "Fiber Optic")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, ml.ChurnLabel+" "), out)

	_, err = execute(t, "predict", "--tenure", "0", "--internet-service", "DSL")
	var fieldErr *ml.InvalidFieldValueError
	assert.ErrorAs(t, err, &fieldErr)
}

func TestBatchCommand(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.csv")
	out, err := execute(t, "batch", "--in", "../../ml/testdata/three_rows.csv", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 rows: 1 churn, 2 not likely to churn")

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(written)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], ","+ml.PredictionCol))
	assert.True(t, strings.HasSuffix(lines[1], ",Yes"))
	assert.True(t, strings.HasSuffix(lines[2], ",No"))
}
