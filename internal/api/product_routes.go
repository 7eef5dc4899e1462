package api

import (
	"net/http"

	"github.com/kjannette/price-optimizer/internal/models"
)

type productRequest struct {
	NmID         int64   `json:"nmId"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CurrentPrice float64 `json:"currentPrice"`
	CostPrice    float64 `json:"costPrice"`
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := s.Optimizer.SaveProduct(r.Context(), &models.Product{
		NmID:         req.NmID,
		Name:         req.Name,
		Category:     req.Category,
		CurrentPrice: req.CurrentPrice,
		CostPrice:    req.CostPrice,
	})
	if err != nil {
		writeServiceError(w, err, "save product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Products.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	p, err := s.Products.Get(r.Context(), nmID)
	if err != nil {
		writeServiceError(w, err, "fetch product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	nmID, ok := parseNmID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid nmID")
		return
	}
	days := parsePositive(r, "days", s.HistoryDays, 365)
	records, err := s.History.GetRecent(r.Context(), nmID, days)
	if err != nil {
		writeServiceError(w, err, "fetch history")
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
