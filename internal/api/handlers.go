package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/internal/capital"
	"github.com/ledgerengine/quant-backend/internal/estimator"
	"github.com/ledgerengine/quant-backend/internal/gbm"
	"github.com/ledgerengine/quant-backend/internal/strategy"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

type simulateRequest struct {
	types.MonteCarloParams
	BidPercentile float64 `json:"bidPercentile"`
	AskPercentile float64 `json:"askPercentile"`
}

type simulateResponse struct {
	Result   *types.MonteCarloResult `json:"result"`
	Strategy types.PricingStrategy   `json:"strategy"`
}

// handleSimulate runs a terminal-distribution simulation and derives the
// bid/ask quote from it in one call.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NumPaths == 0 {
		req.NumPaths = s.simConfig.NumPaths
	}
	if req.HorizonDays == 0 {
		req.HorizonDays = s.simConfig.HorizonDays
	}
	if req.BidPercentile == 0 {
		req.BidPercentile = s.simConfig.BidPercentile
	}
	if req.AskPercentile == 0 {
		req.AskPercentile = s.simConfig.AskPercentile
	}

	result, err := s.mcEngine.Run(req.MonteCarloParams)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.simulationsTotal.Inc()

	// Responses would balloon at the default path count; keep the full
	// terminal slice out of the payload.
	quote := strategy.Derive(result, req.BidPercentile, req.AskPercentile)
	trimmed := *result
	trimmed.TerminalPrices = nil

	writeJSON(w, simulateResponse{Result: &trimmed, Strategy: quote})
}

type pathRequest struct {
	InitialPrice float64 `json:"initialPrice"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	NumDays      int     `json:"numDays"`
	Seed         *int64  `json:"seed,omitempty"`
}

// handlePath generates one daily GBM price path.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NumDays == 0 {
		req.NumDays = s.simConfig.HorizonDays
	}

	path, err := gbm.GeneratePath(req.InitialPrice, req.Drift, req.Volatility, req.NumDays, req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"path":  path,
		"count": len(path),
	})
}

// handleEstimate derives GBM parameters from sold comps. The body is a raw
// sold-listing export in any of the marketplace formats the loader
// understands; prices are outlier-cleaned before estimation.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	comps, err := s.loader.Load(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cleaned := estimator.CleanComps(comps)
	params := s.estimator.Estimate(cleaned)

	writeJSON(w, map[string]interface{}{
		"params":       params,
		"compsUsed":    len(cleaned),
		"compsDropped": len(comps) - len(cleaned),
	})
}

// handleCapital evaluates the capital model. Missing fields fall back to
// the baseline scenario.
func (s *Server) handleCapital(w http.ResponseWriter, r *http.Request) {
	params := capital.DefaultParams()
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := capital.Evaluate(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"params": params,
		"result": result,
	})
}

// handleBacktest runs the fixed bid/ask crossing backtest synchronously.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var params types.BacktestParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.applyBacktestConfig(&params.InitialCash, &params.MaxPosition, &params.TradeSize)

	result, err := s.btEngine.Run(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.backtestsTotal.WithLabelValues("crossing").Inc()
	writeJSON(w, result)
}

// handleDiscountBacktest runs one discount-buy backtest synchronously.
func (s *Server) handleDiscountBacktest(w http.ResponseWriter, r *http.Request) {
	var params types.BuyDiscountParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.applyBacktestConfig(&params.InitialCash, &params.MaxPosition, &params.TradeSize)
	if params.FairValueWindow == 0 {
		params.FairValueWindow = s.btConfig.FairValueWindow
	}
	if params.BuyDiscountPct == 0 {
		params.BuyDiscountPct = s.btConfig.BuyDiscountPct
	}

	result, err := s.btEngine.RunBuyDiscount(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.backtestsTotal.WithLabelValues("discount").Inc()
	writeJSON(w, result)
}

// handleRunSweep starts a parameter grid sweep in the background and
// returns its id immediately. Progress streams to WebSocket subscribers and
// the result is fetched via GET /sweep/{id}.
func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	var params types.SweepParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(params.SellAfterDays) == 0 || len(params.SellTargetPcts) == 0 {
		writeError(w, http.StatusBadRequest, "sellAfterDays and sellTargetPcts must be non-empty")
		return
	}
	s.applyBacktestConfig(&params.Base.InitialCash, &params.Base.MaxPosition, &params.Base.TradeSize)
	if params.Base.FairValueWindow == 0 {
		params.Base.FairValueWindow = s.btConfig.FairValueWindow
	}
	if params.Base.BuyDiscountPct == 0 {
		params.Base.BuyDiscountPct = s.btConfig.BuyDiscountPct
	}

	state := &SweepState{
		ID:      uuid.New().String(),
		Status:  "running",
		Started: time.Now(),
		Total:   len(params.SellAfterDays) * len(params.SellTargetPcts),
	}
	s.mu.Lock()
	s.sweeps[state.ID] = state
	s.mu.Unlock()
	s.metrics.sweepsTotal.Inc()

	go s.runSweepAsync(state, params)

	writeJSON(w, map[string]interface{}{
		"id":      state.ID,
		"status":  state.Status,
		"total":   state.Total,
		"started": state.Started.Unix(),
	})
}

func (s *Server) runSweepAsync(state *SweepState, params types.SweepParams) {
	results, err := s.btEngine.RunSweep(params, s.btConfig.SweepWorkers, func(completed, total int) {
		s.mu.Lock()
		state.Completed = completed
		s.mu.Unlock()
		s.metrics.sweepCellsTotal.Inc()

		s.broadcast(&Message{
			ID:        uuid.New().String(),
			Type:      "event",
			Method:    "sweep:progress",
			Payload:   map[string]interface{}{"id": state.ID, "completed": completed, "total": total},
			Timestamp: time.Now().UnixMilli(),
		})
	})

	s.mu.Lock()
	if err != nil {
		state.Status = "failed"
		state.Error = err.Error()
		s.logger.Error("Sweep failed", zap.String("id", state.ID), zap.Error(err))
	} else {
		state.Status = "completed"
		state.Results = results
	}
	status := state.Status
	s.mu.Unlock()

	s.broadcast(&Message{
		ID:        uuid.New().String(),
		Type:      "event",
		Method:    "sweep:complete",
		Payload:   map[string]interface{}{"id": state.ID, "status": status},
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleGetSweep returns sweep status and, once complete, its results.
func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	state, ok := s.sweeps[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "sweep not found")
		return
	}

	s.mu.RLock()
	response := map[string]interface{}{
		"id":        state.ID,
		"status":    state.Status,
		"started":   state.Started.Unix(),
		"completed": state.Completed,
		"total":     state.Total,
	}
	if state.Status == "completed" {
		response["results"] = state.Results
	}
	if state.Error != "" {
		response["error"] = state.Error
	}
	s.mu.RUnlock()

	writeJSON(w, response)
}

func (s *Server) applyBacktestConfig(initialCash *float64, maxPosition, tradeSize *int) {
	if *initialCash == 0 {
		*initialCash = s.btConfig.InitialCash
	}
	if *maxPosition == 0 {
		*maxPosition = s.btConfig.MaxPosition
	}
	if *tradeSize == 0 {
		*tradeSize = s.btConfig.TradeSize
	}
}
