package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ranking"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server/middleware"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// DefaultRunsLimit is the page size of GET /runs.
const DefaultRunsLimit = 20

// SynthesizeResponse is the body of POST /synthesize.
type SynthesizeResponse struct {
	Total    int                      `json:"total"`
	Insights []types.QualifiedInsight `json:"insights"`
}

// EventsResponse is the body of GET /events.
type EventsResponse struct {
	Count  int                          `json:"count"`
	Events []types.MarketingEventRecord `json:"events"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.acquireRun(w) {
		return
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	agent, err := s.newAgent(ctx, nil)
	if err != nil {
		s.failure(w, r, "failed to build agent", err)
		return
	}

	s.log.Info("run requested", zap.String("operator", operator(r)))
	result, err := agent.Run(ctx)
	if err != nil {
		s.failure(w, r, "run failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// acquireRun takes the run lock or answers 409 when another run holds it.
func (s *Server) acquireRun(w http.ResponseWriter) bool {
	if s.runMu.TryLock() {
		return true
	}
	s.errorResponse(w, http.StatusConflict, "a run is already in progress")
	return false
}

// handleSynthesize returns ranked insights without touching the store.
// ?limit=N trims the response to the top N; total still counts every insight.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	agent, err := s.newAgent(ctx, nil)
	if err != nil {
		s.failure(w, r, "failed to build agent", err)
		return
	}
	insights, err := agent.SynthesizeOnly(ctx)
	if err != nil {
		s.failure(w, r, "synthesis failed", err)
		return
	}

	resp := SynthesizeResponse{Total: len(insights), Insights: insights}
	if limit > 0 {
		resp.Insights = ranking.Top(insights, limit)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	agent, err := s.newAgent(r.Context(), nil)
	if err != nil {
		s.failure(w, r, "failed to build agent", err)
		return
	}
	records, err := agent.GetCurrentEvents(r.Context())
	if err != nil {
		s.failure(w, r, "failed to list events", err)
		return
	}
	if records == nil {
		records = []types.MarketingEventRecord{}
	}
	s.jsonResponse(w, http.StatusOK, EventsResponse{Count: len(records), Events: records})
}

// handleRunStream runs the pipeline and streams progress as Server-Sent Events.
// The stream ends with a result or error event followed by complete.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if !s.acquireRun(w) {
		return
	}
	defer s.runMu.Unlock()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	var mu sync.Mutex
	var runID string
	onProgress := func(ev pipeline.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.RunID != "" {
			runID = ev.RunID
		}
		// content can be large; the result event carries it once
		if err := sse.WriteEvent(EventProgress, pipeline.ProgressEvent{Step: ev.Step, Message: ev.Message, RunID: ev.RunID}); err != nil {
			s.log.Debug("client went away during stream", zap.Error(err))
		}
	}

	agent, err := s.newAgent(ctx, onProgress)
	if err != nil {
		sse.WriteError(HTTPStatus(err), err.Error())
		sse.WriteComplete("", "failed")
		return
	}

	s.log.Info("streamed run requested", zap.String("operator", operator(r)))
	result, err := agent.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		s.log.Error("streamed run failed", zap.Error(err))
		sse.WriteError(HTTPStatus(err), err.Error())
		sse.WriteComplete(runID, "failed")
		return
	}
	sse.WriteEvent(EventResult, result) //nolint:errcheck
	sse.WriteComplete(result.RunID, "completed")
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	limit, err := queryInt(r, "limit", DefaultRunsLimit)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		s.failure(w, r, "failed to list runs", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.history.GetRun(r.Context(), id)
	if err != nil {
		s.failure(w, r, "failed to load run", err)
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// failure logs err and writes it with the status HTTPStatus assigns.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := HTTPStatus(err)
	s.log.Error(msg, zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	s.errorResponse(w, status, err.Error())
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, &ErrValidation{Field: name, Message: "must be a positive integer"}
	}
	return v, nil
}

func operator(r *http.Request) string {
	op, _ := middleware.Operator(r)
	return op
}
