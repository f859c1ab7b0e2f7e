package api

import (
	"net/http"
	"strconv"

	"signal-desk/database"
)

// handleHealth returns the health status of the API.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Calibration Handlers

func (s *Server) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.calibration.State())
}

// handleAdjustCalibration shifts the threshold or bias. Body names which
// tunable and by how much; the reason goes into the adjustment log.
func (s *Server) handleAdjustCalibration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type   string  `json:"type"` // impact_threshold or credibility_bias
		Delta  float64 `json:"delta"`
		Reason string  `json:"reason"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	switch body.Type {
	case "impact_threshold":
		state := s.calibration.AdjustThreshold(body.Delta, body.Reason)
		s.events.Appendf("[calibration] impact threshold adjusted by %+.2f: %s", body.Delta, body.Reason)
		s.broker.Broadcast("calibration_adjusted", state)
		writeJSON(w, http.StatusOK, state)
	case "credibility_bias":
		state := s.calibration.AdjustBias(body.Delta, body.Reason)
		s.events.Appendf("[calibration] credibility bias adjusted by %+.2f: %s", body.Delta, body.Reason)
		s.broker.Broadcast("calibration_adjusted", state)
		writeJSON(w, http.StatusOK, state)
	default:
		respondWithError(w, http.StatusBadRequest, "unknown calibration type", nil)
	}
}

// Configuration Handlers (Webhooks Only)

func (s *Server) handleGetWebhooks(w http.ResponseWriter, r *http.Request) {
	if s.webhookRepo == nil {
		writeJSON(w, http.StatusOK, []database.PublishWebhook{})
		return
	}
	webhooks, err := s.webhookRepo.GetWebhooks()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "webhook lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, webhooks)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookRepo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "webhook storage unavailable", nil)
		return
	}

	var webhook database.PublishWebhook
	if !decodeBody(w, r, &webhook) {
		return
	}

	// Reset ID to let DB assign it
	webhook.ID = 0

	if err := s.webhookRepo.CreateWebhook(&webhook); err != nil {
		respondWithError(w, http.StatusInternalServerError, "webhook create failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, webhook)
}

func (s *Server) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookRepo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "webhook storage unavailable", nil)
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID", err)
		return
	}

	var webhook database.PublishWebhook
	if !decodeBody(w, r, &webhook) {
		return
	}

	webhook.ID = id // Ensure ID matches path
	if err := s.webhookRepo.UpdateWebhook(&webhook); err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "webhook not found", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "webhook update failed", err)
		return
	}
	writeJSON(w, http.StatusOK, webhook)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookRepo == nil {
		respondWithError(w, http.StatusServiceUnavailable, "webhook storage unavailable", nil)
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID", err)
		return
	}

	if err := s.webhookRepo.DeleteWebhook(id); err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "webhook not found", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "webhook delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
