package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kjannette/price-optimizer/internal/competitor"
	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/optimizer"
	"github.com/kjannette/price-optimizer/internal/pricing"
	"github.com/kjannette/price-optimizer/internal/risk"
)

const (
	maxQueryLimit = 1000
	maxBodyBytes  = 1 << 20
)

type Optimizer interface {
	SaveProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	OptimizeProduct(ctx context.Context, nmID int64, req optimizer.Request) (*models.Recommendation, error)
	OptimizeMany(ctx context.Context, req optimizer.BulkRequest) (*models.BulkResult, error)
	ApplyOptimalPrice(ctx context.Context, nmID int64) (*models.ApplyResult, error)
	CurrentPrice(ctx context.Context, nmID int64) (*models.CurrentPrice, error)
}

type ProductReader interface {
	Get(ctx context.Context, nmID int64) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

type HistoryReader interface {
	GetRecent(ctx context.Context, nmID int64, days int) ([]models.HistoryRecord, error)
}

type OptimizationReader interface {
	GetLatest(ctx context.Context, nmID int64) (*models.Optimization, error)
	GetHistory(ctx context.Context, nmID int64, limit int) ([]models.Optimization, error)
}

type CompetitorAnalyzer interface {
	Analyze(ctx context.Context, nmID int64, minReviews int) (*models.CompetitorAnalysis, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB            Pinger
	Optimizer     Optimizer
	Products      ProductReader
	History       HistoryReader
	Optimizations OptimizationReader
	Competitors   CompetitorAnalyzer
	HistoryDays   int
}

type Server struct {
	Deps
	httpServer *http.Server
	apiKey     string
}

func NewServer(deps Deps, port int, apiKey, corsOrigin string) *Server {
	if deps.HistoryDays <= 0 {
		deps.HistoryDays = pricing.DefaultParams().WindowDays
	}
	s := &Server{Deps: deps, apiKey: apiKey}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.authMiddleware(corsMiddleware(s.routes(), corsOrigin)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Product routes
	mux.HandleFunc("POST /v1/products", s.handleSaveProduct)
	mux.HandleFunc("GET /v1/products", s.handleListProducts)
	mux.HandleFunc("GET /v1/products/{nmID}", s.handleGetProduct)
	mux.HandleFunc("GET /v1/products/{nmID}/history", s.handleProductHistory)

	// Optimization routes
	mux.HandleFunc("POST /v1/products/{nmID}/optimize", s.handleOptimizeProduct)
	mux.HandleFunc("POST /v1/optimize", s.handleOptimizeMany)
	mux.HandleFunc("POST /v1/products/{nmID}/apply", s.handleApply)
	mux.HandleFunc("GET /v1/products/{nmID}/optimizations/latest", s.handleLatestOptimization)
	mux.HandleFunc("GET /v1/products/{nmID}/optimizations", s.handleOptimizationHistory)

	// Market routes
	mux.HandleFunc("GET /v1/products/{nmID}/competitors", s.handleCompetitors)
	mux.HandleFunc("GET /v1/prices/{nmID}/current", s.handleCurrentPrice)
	mux.HandleFunc("POST /v1/elasticity", s.handleElasticity)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseNmID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("nmID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseLimit(r *http.Request, defaultLimit int) int {
	return parsePositive(r, "limit", defaultLimit, maxQueryLimit)
}

func parsePositive(r *http.Request, key string, fallback, ceiling int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, optimizer.ErrProductNotFound),
		errors.Is(err, optimizer.ErrNoRecommendation),
		errors.Is(err, competitor.ErrListingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrInsufficientData),
		errors.Is(err, pricing.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, risk.ErrPriceChangeBlocked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		fmt.Printf("[API] Failed to %s: %v\n", action, err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
