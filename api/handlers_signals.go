package api

import (
	"errors"
	"net/http"
	"strings"

	"signal-desk/pipeline"
)

// handleIngest runs one raw input through the pipeline synchronously.
// 202 with the committed pair on success, 409 when an invocation is
// already in flight, 502 on a fatal oracle stage failure.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	result, err := s.orchestrator.ProcessRawSignal(r.Context(), body.Text)
	if err != nil {
		if errors.Is(err, pipeline.ErrPipelineBusy) {
			respondWithError(w, http.StatusConflict, "pipeline busy", err)
			return
		}
		respondWithError(w, http.StatusBadGateway, "signal processing failed", err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Signals())
}

func (s *Server) handleGetDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Drafts())
}

func (s *Server) handleGetStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stories())
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.State())
}

// handleGetTasks returns the periodic collection schedule. Display-only:
// nothing executes these tasks.
func (s *Server) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Tasks())
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.events.Entries())
}
