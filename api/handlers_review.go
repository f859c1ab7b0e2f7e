package api

import (
	"net/http"
)

// Review actions return 200 when applied and 404 when the id does not
// resolve or the draft is terminal. The underlying operations are no-ops
// in those cases, never errors.

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	if !s.review.Approve(r.Context(), draftID) {
		respondWithError(w, http.StatusNotFound, "draft not found or finalized", nil)
		return
	}
	draft, _ := s.store.Draft(draftID)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	var body struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Reason == "" {
		body.Reason = "Manual Reject"
	}

	if !s.review.Reject(draftID, body.Reason) {
		respondWithError(w, http.StatusNotFound, "draft not found or finalized", nil)
		return
	}
	draft, _ := s.store.Draft(draftID)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	var body struct {
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.review.Regenerate(r.Context(), draftID, body.Feedback); err != nil {
		respondWithError(w, http.StatusBadGateway, "regeneration failed", err)
		return
	}
	draft, found := s.store.Draft(draftID)
	if !found {
		respondWithError(w, http.StatusNotFound, "draft not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleEditContent(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if !s.review.Edit(draftID, body.Content) {
		respondWithError(w, http.StatusNotFound, "draft not found or finalized", nil)
		return
	}
	draft, _ := s.store.Draft(draftID)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleEditThread(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	var body struct {
		ThreadItems []string `json:"thread_items"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if !s.review.UpdateThread(draftID, body.ThreadItems) {
		respondWithError(w, http.StatusNotFound, "draft not found or finalized", nil)
		return
	}
	draft, _ := s.store.Draft(draftID)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleEditCounterCase(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("id")
	var body struct {
		CounterCase string `json:"counter_case"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if !s.review.UpdateCounterCase(draftID, body.CounterCase) {
		respondWithError(w, http.StatusNotFound, "draft not found or finalized", nil)
		return
	}
	draft, _ := s.store.Draft(draftID)
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleRequestEvidence(w http.ResponseWriter, r *http.Request) {
	signalID := r.PathValue("id")
	var body struct {
		Question string `json:"question"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	answer, ok := s.review.RequestMoreEvidence(r.Context(), signalID, body.Question)
	if !ok {
		respondWithError(w, http.StatusNotFound, "signal not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	signalID := r.PathValue("id")
	evidenceID := r.PathValue("eid")

	if !s.review.ToggleStar(signalID, evidenceID) {
		respondWithError(w, http.StatusNotFound, "signal or evidence not found", nil)
		return
	}
	signal, _ := s.store.Signal(signalID)
	writeJSON(w, http.StatusOK, signal)
}

func (s *Server) handleDistillStory(w http.ResponseWriter, r *http.Request) {
	storyID := r.PathValue("id")

	note, err := s.review.DistillStory(r.Context(), storyID)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "distillation failed", err)
		return
	}
	if note == "" {
		if _, found := s.store.Story(storyID); !found {
			respondWithError(w, http.StatusNotFound, "story not found", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"distilled_note": note})
}

func (s *Server) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	signalID := r.PathValue("id")

	if _, found := s.store.Signal(signalID); !found {
		respondWithError(w, http.StatusNotFound, "signal not found", nil)
		return
	}

	report, err := s.review.DeepDive(r.Context(), signalID)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "deep dive failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report": report})
}
