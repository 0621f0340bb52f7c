package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"churnscope/db"
	"churnscope/ml"
)

// decodeRecord 解析JSON记录，缺省字段使用默认值
func decodeRecord(r io.Reader) (ml.FeatureRecord, error) {
	record := ml.DefaultRecord()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&record); err != nil {
		return record, bodyError(err)
	}
	// 只接受一个JSON对象
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the record")
		}
		return record, bodyError(err)
	}
	return record, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return badRequest(fmt.Errorf("invalid JSON body: %w", err))
}

func (a *api) handlePredict(w http.ResponseWriter, r *http.Request) {
	record, err := decodeRecord(r.Body)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}

	result, err := a.predictor.Predict(record)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}

	a.recordPredictions(r.Context(), db.KindSingle, singleSummary(result))
	respondJSON(w, http.StatusOK, result)
}

func singleSummary(result *ml.PredictionResult) ml.BatchSummary {
	if result.Churn {
		return ml.BatchSummary{Rows: 1, Churn: 1}
	}
	return ml.BatchSummary{Rows: 1, NoChurn: 1}
}

// recordPredictions 记录指标和活动，存储失败不影响响应
func (a *api) recordPredictions(ctx context.Context, kind string, summary ml.BatchSummary) {
	a.metrics.ObservePredictions(kind, summary.Churn, summary.NoChurn)

	err := a.store.RecordActivity(context.WithoutCancel(ctx), db.Activity{
		Kind:    kind,
		Rows:    summary.Rows,
		Churn:   summary.Churn,
		NoChurn: summary.NoChurn,
	})
	if err != nil {
		a.logger.Warn("failed to record activity",
			zap.String("request_id", GetRequestID(ctx)),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}
