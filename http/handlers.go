package http

import (
	"embed"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"churnscope/ml"
)

//go:embed static
var staticFS embed.FS

// api 处理器依赖
type api struct {
	predictor   *ml.Predictor
	store       ActivityStore
	exports     *ExportCache
	metrics     *Metrics
	logger      *zap.Logger
	previewRows int
	upgrader    websocket.Upgrader
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.Handle("GET /api/health", a.metrics.instrument("health", a.handleHealth))
	mux.Handle("GET /api/schema", a.metrics.instrument("schema", a.handleSchema))
	mux.Handle("GET /api/model", a.metrics.instrument("model", a.handleModel))
	mux.Handle("GET /api/about", a.metrics.instrument("about", a.handleAbout))
	mux.Handle("GET /api/insights", a.metrics.instrument("insights", a.handleInsights))
	mux.Handle("POST /api/predict", a.metrics.instrument("predict", a.handlePredict))
	mux.Handle("POST /api/predict/batch", a.metrics.instrument("predict_batch", a.handleBatch))
	mux.Handle("GET /api/predict/batch/{id}/download", a.metrics.instrument("download", a.handleDownload))
	mux.HandleFunc("GET /api/ws/predict", a.handleWebSocket)
	mux.Handle("GET /metrics", a.metrics.Handler())
}

func (a *api) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  a.predictor.Artifact().Info().Name,
	})
}

func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ml.ChurnSchema())
}

// historyLimit 模型加载历史和最近活动的条数
const historyLimit = 10

// modelResponse 当前模型信息以及加载历史
type modelResponse struct {
	ml.ArtifactInfo
	History []ml.ArtifactInfo `json:"history"`
}

func (a *api) handleModel(w http.ResponseWriter, r *http.Request) {
	history, err := a.store.ModelLoads(r.Context(), historyLimit)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, modelResponse{
		ArtifactInfo: a.predictor.Artifact().Info(),
		History:      history,
	})
}

func (a *api) handleAbout(w http.ResponseWriter, r *http.Request) {
	info := a.predictor.Artifact().Info()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"title": "About This Project",
		"description": "This Customer Churn Prediction App predicts whether a customer will leave " +
			"the service based on their features.",
		"model":          info.Name,
		"model_type":     info.ModelType,
		"schema_version": info.SchemaVersion,
		"features":       ml.FeatureNames(),
	})
}

// chartSlice 饼图的一块
type chartSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// handleInsights 返回示例分布图数据以及本服务的预测统计
func (a *api) handleInsights(w http.ResponseWriter, r *http.Request) {
	totals, err := a.store.Totals(r.Context())
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	recent, err := a.store.RecentActivity(r.Context(), historyLimit)
	if err != nil {
		a.respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"title": "Churn Distribution",
		"slices": []chartSlice{
			{Label: "Yes", Count: 400, Color: "red"},
			{Label: "No", Count: 600, Color: "green"},
		},
		"activity": totals,
		"recent":   recent,
	})
}
