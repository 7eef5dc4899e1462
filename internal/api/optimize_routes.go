package api

import (
	"net/http"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/optimizer"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

type optimizeRequest struct {
	OptimizeFor         string `json:"optimizeFor"`
	ConsiderCompetitors *bool  `json:"considerCompetitors"`
}

type bulkOptimizeRequest struct {
	NmIDs               []int64  `json:"nmIds"`
	OptimizeFor         string   `json:"optimizeFor"`
	MinConfidence       *float64 `json:"minConfidence"`
	ConsiderCompetitors *bool    `json:"considerCompetitors"`
}

// competitors defaults to on when the field is omitted.
func competitors(v *bool) bool {
	return v == nil || *v
}

func (s *Server) handleOptimizeProduct(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	var req optimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	objective, err := pricing.ParseObjective(req.OptimizeFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.Optimizer.OptimizeProduct(r.Context(), nmID, optimizer.Request{
		Objective:           objective,
		ConsiderCompetitors: competitors(req.ConsiderCompetitors),
	})
	if err != nil {
		writeServiceError(w, err, "optimize product")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleOptimizeMany(w http.ResponseWriter, r *http.Request) {
	var req bulkOptimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	objective, err := pricing.ParseObjective(req.OptimizeFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MinConfidence != nil && (*req.MinConfidence < 0 || *req.MinConfidence > 1) {
		writeError(w, http.StatusBadRequest, "minConfidence must be within [0, 1]")
		return
	}

	res, err := s.Optimizer.OptimizeMany(r.Context(), optimizer.BulkRequest{
		NmIDs:               req.NmIDs,
		Objective:           objective,
		ConsiderCompetitors: competitors(req.ConsiderCompetitors),
		MinConfidence:       req.MinConfidence,
	})
	if err != nil {
		writeServiceError(w, err, "optimize products")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	res, err := s.Optimizer.ApplyOptimalPrice(r.Context(), nmID)
	if err != nil {
		writeServiceError(w, err, "apply price")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLatestOptimization(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	o, err := s.Optimizations.GetLatest(r.Context(), nmID)
	if err != nil {
		writeServiceError(w, err, "fetch optimization")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "no optimization results for product")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleOptimizationHistory(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	list, err := s.Optimizations.GetHistory(r.Context(), nmID, parseLimit(r, 20))
	if err != nil {
		writeServiceError(w, err, "fetch optimizations")
		return
	}
	if list == nil {
		list = []models.Optimization{}
	}
	writeJSON(w, http.StatusOK, list)
}
