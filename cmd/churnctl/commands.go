package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churnscope/ml"
	"churnscope/table"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the feature schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSchema(cmd.OutOrStdout(), ml.ChurnSchema())
	},
}

func printSchema(out io.Writer, schema *ml.Schema) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tCOLUMN\tKIND\tVALUES\tDEFAULT\n")
	for i, f := range schema.Fields {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, f.Name, f.Kind, domain(f), f.Default)
	}
	return w.Flush()
}

func domain(f ml.Field) string {
	switch f.Kind {
	case ml.KindCategorical:
		labels := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			labels[i] = fmt.Sprintf("%d=%s", i, c.Label)
		}
		return strings.Join(labels, ", ")
	case ml.KindInteger:
		return fmt.Sprintf("%g..%g", f.Min, f.Max)
	default:
		return fmt.Sprintf(">= %g", f.Min)
	}
}

// newPredictCmd registers one flag per schema field, named after the field with dashes.
func newPredictCmd() *cobra.Command {
	schema := ml.ChurnSchema()
	values := make([]string, len(schema.Fields))

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict churn for one customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := loadPredictor()
			if err != nil {
				return err
			}
			vector, err := schema.EncodeValues(values)
			if err != nil {
				return err
			}
			result, err := predictor.PredictVector(vector)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (score %.2f)\n", result.Label, result.Score)
			return nil
		},
	}

	for i, f := range schema.Fields {
		cmd.Flags().StringVar(&values[i], flagName(f), f.Default, f.Label)
	}
	return cmd
}

func flagName(f ml.Field) string {
	return strings.ReplaceAll(f.Name, "_", "-")
}

var (
	batchIn      string
	batchOut     string
	batchCharset string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict churn for every row of a CSV file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		predictor, err := loadPredictor()
		if err != nil {
			return err
		}

		input, err := readTable(batchIn, batchCharset)
		if err != nil {
			return err
		}

		out, summary, err := predictor.PredictTable(input)
		if err != nil {
			return err
		}

		if err := writeTable(batchOut, out); err != nil {
			return err
		}
		logger.Info("batch written", zap.String("path", batchOut), zap.Int("rows", summary.Rows))
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows: %d churn, %d not likely to churn -> %s\n",
			summary.Rows, summary.Churn, summary.NoChurn, batchOut)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchIn, "in", "", "input CSV path")
	batchCmd.Flags().StringVar(&batchOut, "out", "batch_predictions.csv", "output CSV path")
	batchCmd.Flags().StringVar(&batchCharset, "charset", "", "input encoding, e.g. latin1 (default utf-8)")
	_ = batchCmd.MarkFlagRequired("in")
}

func loadPredictor() (*ml.Predictor, error) {
	artifact, err := ml.LoadArtifact(modelPath)
	if err != nil {
		return nil, err
	}
	info := artifact.Info()
	logger.Debug("model loaded", zap.String("name", info.Name), zap.String("type", info.ModelType))
	return ml.NewPredictor(artifact), nil
}

func readTable(path, charset string) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	bar := progressbar.DefaultBytes(stat.Size(), "reading "+path)
	defer bar.Finish() //nolint:errcheck

	return table.ReadCSV(io.TeeReader(file, bar), charset)
}

func writeTable(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
