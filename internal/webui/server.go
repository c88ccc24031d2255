// Package webui exposes the engine over HTTP: a synchronous inference
// endpoint and a lookup endpoint for runs persisted by the scheduler.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/module/reachability/internal/networkio"
	"github.com/module/reachability/internal/repository"
	"github.com/module/reachability/pkg/config"
	"github.com/module/reachability/pkg/engine"
	"github.com/module/reachability/pkg/utils"
)

// Server is the engine's HTTP API.
type Server struct {
	config *config.Config
	logger utils.Logger
	repos  *repository.Repositories
	port   int

	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, repos *repository.Repositories, port int, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Server{
		config: cfg,
		logger: logger,
		repos:  repos,
		port:   port,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/infer", s.handleInfer)
	mux.HandleFunc("/v1/runs/", s.handleGetRun)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("API server listening on :%d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// InferRequest is the body of POST /v1/infer: a network document plus
// engine knobs and whether to save the resulting belief map (see
// persistRun).
type InferRequest struct {
	networkio.Document
	Evaluator string `json:"evaluator,omitempty"` // "enumeration" or "sdp"
	Parallel  bool   `json:"parallel,omitempty"`
	Persist   bool   `json:"persist,omitempty"`
}

// InferResponse reports the resolved belief map, keyed by node ID.
type InferResponse struct {
	NetworkHash string          `json:"network_hash"`
	RunUUID     string          `json:"run_uuid,omitempty"`
	Beliefs     json.RawMessage `json:"beliefs"`
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}

	var req InferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	hash, err := networkio.Hash(&req.Document)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	network, err := req.Document.Network()
	if err != nil {
		s.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	diamondsAtNode, err := req.Document.ToDiamondsAtNode(network)
	if err != nil {
		s.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	opts := inferOptions(req.Evaluator, req.Parallel)

	beliefs, err := engine.UpdateBeliefs(network, diamondsAtNode, opts...)
	if err != nil {
		s.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	encoded, err := networkio.EncodeBeliefs(beliefs)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := InferResponse{
		NetworkHash: hash,
		Beliefs:     encoded,
	}

	if req.Persist && s.repos != nil {
		runUUID, err := s.persistRun(r.Context(), hash, req.Evaluator, encoded)
		if err != nil {
			s.logger.Warn("Failed to persist run %s: %v", hash, err)
		} else {
			resp.RunUUID = runUUID
		}
	}

	s.sendJSON(w, http.StatusOK, resp)
}

// persistRun saves the belief map of a completed synchronous inference
// as a belief result under a fresh run UUID. It writes no run record,
// so GET /v1/runs/{hash} does not find the result.
func (s *Server) persistRun(ctx context.Context, hash, evaluator string, beliefs []byte) (string, error) {
	runUUID := uuid.NewString()

	result := &repository.BeliefResult{
		RunUUID: runUUID,
		Beliefs: beliefs,
		Version: s.config.Engine.Version,
	}

	if err := s.repos.Result.SaveResult(ctx, result); err != nil {
		return "", err
	}

	return runUUID, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}

	hash := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if hash == "" {
		s.sendError(w, http.StatusBadRequest, "network hash is required")
		return
	}

	if s.repos == nil {
		s.sendError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	run, err := s.repos.Run.GetRunByNetworkHash(r.Context(), hash)
	if err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}

	// Absence of a result for a pending/running run is not itself an
	// API error; the run record alone is still useful to the caller.
	result, err := s.repos.Result.GetResultByRunUUID(r.Context(), run.RunUUID)
	if err != nil {
		result = nil
	}

	resp := struct {
		Run    *repository.Run          `json:"run"`
		Result *repository.BeliefResult `json:"result,omitempty"`
	}{Run: run, Result: result}

	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func inferOptions(evaluator string, parallel bool) []engine.Option {
	var opts []engine.Option
	if evaluator == "sdp" {
		opts = append(opts, engine.WithEvaluator(engine.EvaluatorSDP))
	}
	if parallel {
		opts = append(opts, engine.WithParallel())
	}
	return opts
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
