package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// ScanService is the part of the scheduler the HTTP surface needs.
type ScanService interface {
	Latest() *model.ScanResult
	Running() bool
	Trigger() bool
}

// Handler handles HTTP API requests.
type Handler struct {
	scans ScanService
	log   *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(scans ScanService, log *zap.Logger) *Handler {
	return &Handler{scans: scans, log: log}
}

// StatusResponse represents a status response.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth reports liveness and whether a scan is running.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":   "ok",
		"scanning": h.scans.Running(),
	}
	if res := h.scans.Latest(); res != nil {
		status["last_scan"] = res.FinishedAt
		status["last_run_id"] = res.RunID
	}
	h.jsonResponse(w, http.StatusOK, status)
}

// HandleLatest returns the most recent scan result.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	res := h.scans.Latest()
	if res == nil {
		h.jsonError(w, "no scan has completed yet", http.StatusNotFound)
		return
	}
	h.jsonResponse(w, http.StatusOK, res)
}

// HandleRun starts a scan in the background.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.scans.Trigger() {
		h.jsonError(w, "a scan is already running", http.StatusConflict)
		return
	}
	h.log.Info("scan triggered over http", zap.String("remote", r.RemoteAddr))
	h.jsonResponse(w, http.StatusAccepted, StatusResponse{Status: "accepted", Message: "scan started"})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
