package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karanvs/vega/internal/api/job"
	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/strategy"
)

type stubProvider struct {
	bars []core.Bar
}

func (p *stubProvider) Load(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Bar, error) {
	return p.bars, nil
}

func testBars(n int) []core.Bar {
	base := time.Date(2023, 6, 1, 9, 15, 0, 0, time.UTC)
	bars := make([]core.Bar, n)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = core.Bar{
			Symbol: "NIFTY50",
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
			Time:   base.AddDate(0, 0, i),
		}
	}
	return bars
}

func newTestServer(t *testing.T) (*Server, Deps) {
	t.Helper()

	cfg := backtest.DefaultConfig()
	cfg.CommissionPerTrade = 0
	cfg.CommissionPct = 0
	cfg.SlippagePct = 0
	cfg.PositionSize = 10

	engine, err := backtest.New(cfg, &stubProvider{bars: testBars(5)}, zap.NewNop())
	require.NoError(t, err)

	strategies := strategy.NewRegistry()
	strategies.Register("hold", func(bars []core.Bar, params strategy.Params) core.Action {
		return core.ActionHold
	})

	deps := Deps{
		Backtester: engine,
		Strategies: strategies,
		Jobs:       job.NewStore(10, time.Hour),
	}
	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, deps, zap.NewNop())
	return srv, deps
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
}

func TestListStrategies(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/strategies", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"hold"}, resp.Data)
}

func TestCreateBacktest_BadJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/backtest", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIG_INVALID", errorCode(t, rec))
}

func TestCreateBacktest_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(BacktestRequest{Symbol: "NIFTY50"})
	rec := doRequest(srv, http.MethodPost, "/api/backtest", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIG_MISSING", errorCode(t, rec))
}

func TestCreateBacktest_BadDates(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(BacktestRequest{
		Symbol:   "NIFTY50",
		Strategy: "hold",
		Start:    "01-06-2023",
		End:      "2023-06-05",
	})
	rec := doRequest(srv, http.MethodPost, "/api/backtest", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIG_INVALID", errorCode(t, rec))
}

func TestCreateBacktest_UnknownStrategy(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(BacktestRequest{
		Symbol:   "NIFTY50",
		Strategy: "nope",
		Start:    "2023-06-01",
		End:      "2023-06-05",
	})
	rec := doRequest(srv, http.MethodPost, "/api/backtest", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "STRATEGY_NOT_FOUND", errorCode(t, rec))
}

func TestCreateBacktest_RunsToCompletion(t *testing.T) {
	srv, deps := newTestServer(t)

	body, _ := json.Marshal(BacktestRequest{
		Symbol:   "NIFTY50",
		Strategy: "hold",
		Start:    "2023-06-01",
		End:      "2023-06-05",
	})
	rec := doRequest(srv, http.MethodPost, "/api/backtest", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Data struct {
			JobID  string `json:"job_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.JobID)

	require.Eventually(t, func() bool {
		j, err := deps.Jobs.Get(resp.Data.JobID)
		return err == nil && j.Status == job.StatusComplete
	}, 5*time.Second, 10*time.Millisecond, "job should complete")

	statusRec := doRequest(srv, http.MethodGet, "/api/backtest/"+resp.Data.JobID, nil)
	assert.Equal(t, http.StatusOK, statusRec.Code)

	var status struct {
		Data struct {
			Status   string          `json:"status"`
			Progress int             `json:"progress"`
			Result   json.RawMessage `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &status))
	assert.Equal(t, string(job.StatusComplete), status.Data.Status)
	assert.Equal(t, 100, status.Data.Progress)
	assert.NotEmpty(t, status.Data.Result)
}

func TestGetStatus_UnknownJob(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/backtest/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, rec))
}

func TestListJobs(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.Jobs.Create("backtest")
	deps.Jobs.Create("backtest")

	rec := doRequest(srv, http.MethodGet, "/api/backtest", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}
