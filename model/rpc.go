package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/metrics"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 RankModel 实现，
// 例如部署在 Python 侧的 LightGBM Booster。
//
// 调用经过熔断器：连续失败后熔断，熔断期间直接返回 ErrModelUnavailable，
// 不再把请求压到已经不可用的模型服务上。
type RPCModel struct {
	name         string
	Endpoint     string // 例如 "http://localhost:8080/predict"
	Timeout      time.Duration
	Client       *http.Client
	featureNames []string

	cb     *gobreaker.CircuitBreaker[[]float64]
	logger zerolog.Logger
}

// RPCOption 配置 RPCModel。
type RPCOption func(*RPCModel)

// WithRPCClient 替换 HTTP client。
func WithRPCClient(c *http.Client) RPCOption {
	return func(m *RPCModel) { m.Client = c }
}

// WithRPCFeatureNames 随请求发送特征名，便于服务端按名对齐。
func WithRPCFeatureNames(names []string) RPCOption {
	return func(m *RPCModel) { m.featureNames = names }
}

// WithRPCLogger 设置日志。
func WithRPCLogger(l zerolog.Logger) RPCOption {
	return func(m *RPCModel) { m.logger = l }
}

// WithRPCBreaker 覆盖熔断参数：连续失败 failures 次后熔断，熔断 timeout 后半开探测。
func WithRPCBreaker(failures uint32, timeout time.Duration) RPCOption {
	return func(m *RPCModel) { m.cb = newBreaker(m.name, failures, timeout, &m.logger) }
}

func NewRPCModel(name, endpoint string, timeout time.Duration, opts ...RPCOption) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	m := &RPCModel{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cb == nil {
		m.cb = newBreaker(name, 5, 30*time.Second, &m.logger)
	}
	metrics.ModelBreakerState.WithLabelValues(name).Set(0)
	return m
}

func newBreaker(name string, failures uint32, timeout time.Duration, logger *zerolog.Logger) *gobreaker.CircuitBreaker[[]float64] {
	return gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("model", name).Str("from", from.String()).Str("to", to.String()).Msg("model breaker state change")
			metrics.ModelBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (m *RPCModel) Name() string {
	return m.name
}

// FeatureNames 返回随请求发送的特征名。
func (m *RPCModel) FeatureNames() []string { return m.featureNames }

// nullableRow 把 NaN 编码为 JSON null。
type nullableRow []float64

func (r nullableRow) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(r))
	for i := range r {
		if !math.IsNaN(r[i]) {
			vals[i] = &r[i]
		}
	}
	return json.Marshal(vals)
}

type rpcRequest struct {
	FeatureNames []string      `json:"feature_names,omitempty"`
	FeaturesList []nullableRow `json:"features_list"`
}

type rpcResponse struct {
	Scores []float64 `json:"scores"`
}

// PredictBatch 调用远程模型服务进行批量预测。
// 请求格式（JSON），未定义特征为 null：
//
//	{"feature_names": ["user_total_orders", ...], "features_list": [[3, 7, null, ...], ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.85, 0.72, ...]}
//
// 任何失败都包装为 core.ErrModelUnavailable。
func (m *RPCModel) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return []float64{}, nil
	}
	scores, err := m.cb.Execute(func() ([]float64, error) {
		return m.call(ctx, rows)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			m.logger.Debug().Str("model", m.name).Msg("model breaker rejected request")
		}
		return nil, core.ErrModelUnavailable.WithCause(err)
	}
	return scores, nil
}

func (m *RPCModel) call(ctx context.Context, rows [][]float64) ([]float64, error) {
	req := rpcRequest{
		FeatureNames: m.featureNames,
		FeaturesList: make([]nullableRow, len(rows)),
	}
	for i, r := range rows {
		req.FeaturesList[i] = r
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(msg))
	}

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Scores) != len(rows) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(rows), len(result.Scores))
	}
	return result.Scores, nil
}
