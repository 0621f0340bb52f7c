package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"churnscope/db"
	"churnscope/ml"
	"churnscope/table"
)

const exportFileName = "batch_predictions.csv"

// batchResponse 批量预测结果
type batchResponse struct {
	ExportID    string          `json:"export_id"`
	DownloadURL string          `json:"download_url"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Summary     ml.BatchSummary `json:"summary"`
	Columns     []string        `json:"columns"`
	Preview     [][]string      `json:"preview"`
	DurationMS  int64           `json:"duration_ms"`
}

// handleBatch 批量预测。?format=csv 直接返回CSV文件，否则返回摘要和下载ID
func (a *api) handleBatch(w http.ResponseWriter, r *http.Request) {
	input, err := readUpload(r)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}

	out, summary, err := a.predictor.PredictTable(input)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	payload, err := table.Bytes(out)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}

	a.metrics.ObserveBatch(summary.Rows)
	a.recordPredictions(r.Context(), db.KindBatch, summary)

	if r.URL.Query().Get("format") == "csv" {
		writeExport(w, payload)
		return
	}

	id, expiresAt := a.exports.Put(payload)
	var elapsed int64
	if start := GetStartTime(r.Context()); !start.IsZero() {
		elapsed = time.Since(start).Milliseconds()
	}
	respondJSON(w, http.StatusOK, batchResponse{
		ExportID:    id,
		DownloadURL: "/api/predict/batch/" + id + "/download",
		ExpiresAt:   expiresAt,
		Summary:     summary,
		Columns:     out.Columns,
		Preview:     out.Head(a.previewRows),
		DurationMS:  elapsed,
	})
}

func (a *api) handleDownload(w http.ResponseWriter, r *http.Request) {
	payload, ok := a.exports.Get(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "export not found or expired")
		return
	}
	writeExport(w, payload)
}

func writeExport(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// readUpload 读取上传的CSV，支持multipart表单的file字段或text/csv请求体。
// 源文件编码可以通过 ?charset=、表单charset字段或Content-Type参数指定
func readUpload(r *http.Request) (*table.Table, error) {
	charset := r.URL.Query().Get("charset")

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, badRequest(fmt.Errorf("content type: %w", err))
	}

	switch mediaType {
	case "multipart/form-data":
		return readMultipart(r, charset)
	case "text/csv", "text/plain", "application/csv":
		if charset == "" {
			charset = params["charset"]
		}
		return table.ReadCSV(r.Body, charset)
	default:
		return nil, badRequest(fmt.Errorf("unsupported content type %q", mediaType))
	}
}

func readMultipart(r *http.Request, charset string) (*table.Table, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, badRequest(err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, badRequest(errors.New(`multipart form has no "file" part`))
		}
		if err != nil {
			return nil, uploadError(err)
		}

		switch part.FormName() {
		case "charset":
			value, err := io.ReadAll(io.LimitReader(part, 64))
			part.Close()
			if err != nil {
				return nil, uploadError(err)
			}
			if v := strings.TrimSpace(string(value)); v != "" {
				charset = v
			}
		case "file":
			t, err := table.ReadCSV(part, charset)
			part.Close()
			return t, err
		default:
			part.Close()
		}
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return badRequest(err)
}
