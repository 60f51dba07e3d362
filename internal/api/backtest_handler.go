package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/karanvs/vega/internal/api/job"
	"github.com/karanvs/vega/internal/api/response"
	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/notifier"
	"github.com/karanvs/vega/internal/strategy"
	"go.uber.org/zap"
)

const backtestTimeout = 5 * time.Minute

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Symbol   string          `json:"symbol"`
	Strategy string          `json:"strategy"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Params   strategy.Params `json:"params,omitempty"`
}

type backtestHandler struct {
	deps Deps
	log  *zap.Logger
}

func newBacktestHandler(deps Deps, log *zap.Logger) *backtestHandler {
	return &backtestHandler{deps: deps, log: log}
}

// Create starts a new backtest job and returns 202 with its ID.
func (h *backtestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Symbol == "" || req.Strategy == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, nil))
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	strat, ok := h.deps.Strategies.Get(req.Strategy)
	if !ok {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrStrategyNotFound, nil))
		return
	}

	j := h.deps.Jobs.Create("backtest")

	go h.runBacktest(j.ID, strat, req.Symbol, start, end, req.Params)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runBacktest executes the backtest, archives the result, and updates
// job status.
func (h *backtestHandler) runBacktest(
	jobID string,
	strat strategy.Strategy,
	symbol string,
	start, end time.Time,
	params strategy.Params,
) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.JobStarted()
		defer h.deps.Metrics.JobFinished()
	}

	h.deps.Jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	began := time.Now()
	result, err := h.deps.Backtester.Run(ctx, strat, symbol, start, end, params)

	if err != nil {
		if h.deps.Metrics != nil {
			h.deps.Metrics.RecordBacktest("failed", time.Since(began).Seconds())
		}
		h.deps.Jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrBacktestFailed, err)
		})
		return
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.RecordBacktest("success", time.Since(began).Seconds())
		h.deps.Metrics.RecordBars(result.TotalBars)
		h.deps.Metrics.RecordTrades(result.Strategy, result.TotalTrades)
	}

	if h.deps.Writer != nil {
		if _, _, err := h.deps.Writer.Save(ctx, result); err != nil {
			h.log.Error("saving backtest result", zap.Error(err))
			if h.deps.Metrics != nil {
				h.deps.Metrics.RecordResultSaved("failed")
			}
		} else if h.deps.Metrics != nil {
			h.deps.Metrics.RecordResultSaved("success")
		}
	}

	if h.deps.Notifiers != nil {
		for name, err := range h.deps.Notifiers.NotifyAll(notifier.Summary{
			Strategy:     result.Strategy,
			Symbol:       result.Symbol,
			StartDate:    result.StartDate,
			EndDate:      result.EndDate,
			TotalTrades:  result.TotalTrades,
			WinRate:      result.WinRate,
			TotalPnL:     result.TotalPnL,
			FinalCapital: result.FinalCapital,
		}) {
			h.log.Warn("notifier failed", zap.String("notifier", name), zap.Error(err))
		}
	}

	h.deps.Jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// GetStatus returns the status of a backtest job.
func (h *backtestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.deps.Jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns all tracked jobs.
func (h *backtestHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.deps.Jobs.List()

	// Results are large; the listing carries status only.
	summaries := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, map[string]any{
			"job_id":     j.ID,
			"status":     j.Status,
			"progress":   j.Progress,
			"created_at": j.CreatedAt,
		})
	}
	response.JSON(w, http.StatusOK, summaries)
}

// ListStrategies returns the registered strategy names.
func (h *backtestHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.deps.Strategies.Names())
}
