// Package server provides the HTTP API for Fika.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/chat"
	"github.com/fikafood/fika/internal/config"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/records"
	"github.com/fikafood/fika/internal/render"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/internal/summary"
)

const maxJSONBody = 1 << 20

// UserHeader identifies the caller on every /api/v1 route except user creation.
const UserHeader = "X-User-ID"

// Deps are the components the handlers call.
type Deps struct {
	Store     storage.Storage
	Records   *records.Service
	Summary   *summary.Aggregator
	MealPlans *mealplan.Service
	Chat      *chat.Service
	PDFCache  *render.Cache
	// DefaultStyle is used when a PDF download names no style.
	DefaultStyle render.Style
	// DiskPaths are reported by /api/v1/status.
	DiskPaths []string
}

// Server is the HTTP server for the Fika API.
type Server struct {
	Deps
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.PDFCache == nil {
		deps.PDFCache = render.NewCache(0)
	}
	return &Server{Deps: deps, config: cfg, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Post("/api/v1/users", s.handleCreateUser)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/me", s.handleGetMe)
		r.Patch("/me", s.handleUpdateMe)

		r.Get("/goals", s.handleGetGoals)
		r.Put("/goals", s.handlePutGoals)
		r.Delete("/goals", s.handleDeleteGoals)
		r.Get("/goals/water", s.handleGetWater)
		r.Put("/goals/water", s.handlePutWater)
		r.Delete("/goals/water", s.handleDeleteWater)

		r.Post("/records", s.handleCreateRecord)
		r.Get("/records", s.handleListRecords)
		r.Get("/records/search", s.handleSearchRecords)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Get("/records/{id}/image", s.handleRecordImage)
		r.Patch("/records/{id}", s.handleUpdateRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)
		r.Post("/records/{id}/reanalyze", s.handleReanalyzeRecord)

		r.Get("/summary/daily", s.handleDailySummary)
		r.Get("/summary/period", s.handlePeriodSummary)
		r.Get("/summary/period/export", s.handleExportPeriod)

		r.Post("/mealplans", s.handleCreateMealPlan)
		r.Get("/mealplans", s.handleListMealPlans)
		r.Get("/mealplans/{id}", s.handleGetMealPlan)
		r.Delete("/mealplans/{id}", s.handleDeleteMealPlan)
		r.Get("/mealplans/{id}/pdf", s.handleMealPlanPDF)

		r.Post("/chat", s.handleChat)
		r.Get("/conversations", s.handleListConversations)
		r.Get("/conversations/{id}", s.handleGetConversation)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type ctxKey struct{}

// requireUser loads the caller named by UserHeader into the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(UserHeader)
		if id == "" {
			s.respondError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}
		u, err := s.Store.GetUser(r.Context(), id)
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		if err != nil {
			s.respondErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func userFrom(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxKey{}).(*models.User)
	return u
}

// statusFor maps an error to its HTTP status and the sentinel it matched.
func statusFor(err error) (int, error) {
	for _, m := range []struct {
		kind   error
		status int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrMissingParameter, http.StatusBadRequest},
		{models.ErrInvalidDate, http.StatusBadRequest},
		{models.ErrInvalidPeriod, http.StatusBadRequest},
		{models.ErrValidation, http.StatusBadRequest},
		{models.ErrMalformedResponse, http.StatusUnprocessableEntity},
		{models.ErrMissingField, http.StatusUnprocessableEntity},
		{models.ErrExternalService, http.StatusBadGateway},
	} {
		if errors.Is(err, m.kind) {
			return m.status, m.kind
		}
	}
	return http.StatusInternalServerError, nil
}

type errorBody struct {
	Error   string         `json:"error"`
	Details string         `json:"details,omitempty"`
	Record  *models.Record `json:"record,omitempty"`
}

func (s *Server) errorBody(err error) (int, errorBody) {
	status, kind := statusFor(err)
	body := errorBody{Error: "internal error", Details: err.Error()}
	if kind != nil {
		body.Error = kind.Error()
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	return status, body
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status, body := s.errorBody(err)
	s.respondJSON(w, status, body)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorBody{Error: message})
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.NewValidationError("body", "invalid request body: "+err.Error())
	}
	return nil
}
