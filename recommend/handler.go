package recommend

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/rushteam/basketrec/core"
)

// Response 是 GET /recommendations/user_{userID} 的响应体。
type Response struct {
	UserID              int64            `json:"user_id"`
	RecommendedProducts []Recommendation `json:"recommended_products"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler 返回服务的 HTTP 路由：
//
//	GET /recommendations/user_{userID}[?top_k=N]
//	GET /healthz   存活检查，始终 200
//	GET /readyz    模型不可用时 503
//	GET /metrics   Prometheus
func NewHandler(r *Recommender, logger zerolog.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(hlog.NewHandler(logger))
	mux.Use(hlog.AccessHandler(func(req *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(req).Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	mux.Use(chimiddleware.Recoverer)

	h := &handler{rec: r}
	mux.Get("/recommendations/user_{userID}", h.recommend)
	mux.Get("/healthz", h.healthz)
	mux.Get("/readyz", h.readyz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type handler struct {
	rec *Recommender
}

func (h *handler) recommend(w http.ResponseWriter, req *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(req, "userID"), 10, 64)
	// 0 是合法 id（管理员账号），是否存在交给 HasUser 判断
	if err != nil || userID < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userID must be a non-negative integer"})
		return
	}
	k := 0
	if raw := req.URL.Query().Get("top_k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "top_k must be a positive integer"})
			return
		}
	}

	recs, err := h.rec.RecommendK(req.Context(), userID, k)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			hlog.FromRequest(req).Error().Err(err).Int64("user_id", userID).Msg("recommend failed")
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{UserID: userID, RecommendedProducts: recs})
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) readyz(w http.ResponseWriter, _ *http.Request) {
	if err := h.rec.Ready(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusOf(err error) int {
	switch {
	case core.IsModelUnavailable(err), errors.Is(err, core.ErrFactsUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
