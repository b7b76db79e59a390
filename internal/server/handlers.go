package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/optimizer"
)

// allocationTolerance is how far off 100 a request's allocation sum may be.
const allocationTolerance = 0.01

type analyzeRequest struct {
	Holdings  []domain.Holding `json:"holdings"`
	Benchmark string           `json:"benchmark,omitempty"`
}

type sectorBalanceRequest struct {
	Holdings []domain.Holding `json:"holdings"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze handles POST /api/portfolio/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := validateHoldings(req.Holdings); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.analysis.Analyze(req.Holdings, req.Benchmark)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleOptimize handles POST /api/portfolio/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := validateHoldings(req.Holdings); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.RiskTolerance == "" {
		req.RiskTolerance = domain.RiskModerate
	}
	if !req.RiskTolerance.Valid() {
		s.writeError(w, http.StatusBadRequest, "risk_tolerance must be conservative, moderate or aggressive")
		return
	}

	result, err := s.optimizer.Optimize(req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleSectorBalance handles POST /api/portfolio/sector-balance
func (s *Server) handleSectorBalance(w http.ResponseWriter, r *http.Request) {
	var req sectorBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := validateHoldings(req.Holdings); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.writeJSON(w, http.StatusOK, s.analysis.CheckSectorBalance(req.Holdings))
}

// validateHoldings checks the request-level invariants: non-empty set,
// non-negative allocations summing to 100.
func validateHoldings(holdings []domain.Holding) string {
	if len(holdings) == 0 {
		return "holdings must not be empty"
	}

	var total float64
	for _, h := range holdings {
		if h.Ticker == "" {
			return "every holding needs a ticker"
		}
		if h.Allocation < 0 {
			return "allocations must be non-negative"
		}
		total += h.Allocation
	}
	if math.Abs(total-100) > allocationTolerance {
		return "allocations must sum to 100"
	}
	return ""
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if missing, ok := domain.IsMissingInstrument(err); ok {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":           "unknown instruments",
			"missing_tickers": missing,
		})
		return
	}
	if errors.Is(err, domain.ErrInsufficientHistory) {
		s.writeError(w, http.StatusUnprocessableEntity, "insufficient overlapping price history")
		return
	}

	s.log.Error().Err(err).Msg("Request failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
