package api

import (
	"net/http"
	"strconv"

	"github.com/kjannette/price-optimizer/internal/pricing"
)

func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	if s.Competitors == nil {
		writeError(w, http.StatusServiceUnavailable, "competitor analysis not configured")
		return
	}
	minReviews := 0
	if v := r.URL.Query().Get("minReviews"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "minReviews must be a non-negative integer")
			return
		}
		minReviews = n
	}

	analysis, err := s.Competitors.Analyze(r.Context(), nmID, minReviews)
	if err != nil {
		writeServiceError(w, err, "analyze competitors")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	price, err := s.Optimizer.CurrentPrice(r.Context(), nmID)
	if err != nil {
		writeServiceError(w, err, "fetch current price")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

type elasticityRequest struct {
	History     []pricing.PricePoint `json:"history"`
	TargetPrice *float64             `json:"targetPrice"`
}

type predictionJSON struct {
	TargetPrice float64 `json:"targetPrice"`
	Units       int     `json:"units"`
	Confidence  float64 `json:"confidence"`
}

type elasticityResponse struct {
	Elasticity pricing.Elasticity `json:"elasticity"`
	Prediction *predictionJSON    `json:"prediction,omitempty"`
}

func (s *Server) handleElasticity(w http.ResponseWriter, r *http.Request) {
	var req elasticityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.History) == 0 {
		writeError(w, http.StatusBadRequest, "history is required")
		return
	}

	el := pricing.Estimate(req.History)
	out := elasticityResponse{Elasticity: el}
	if req.TargetPrice != nil {
		if *req.TargetPrice <= 0 {
			writeError(w, http.StatusBadRequest, "targetPrice must be positive")
			return
		}
		// without a regression estimate the curve falls back to local elasticity
		var coef *float64
		if el.Coefficient != 0 {
			coef = &el.Coefficient
		}
		units, confidence := pricing.Predict(req.History, *req.TargetPrice, coef)
		out.Prediction = &predictionJSON{TargetPrice: *req.TargetPrice, Units: units, Confidence: confidence}
	}
	writeJSON(w, http.StatusOK, out)
}
