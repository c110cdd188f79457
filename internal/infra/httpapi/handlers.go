package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"homestock_notifier/internal/app"

	"github.com/sirupsen/logrus"
)

const defaultRunTimeout = 5 * time.Minute

type handlers struct {
	checker    app.ExpiryChecker
	trigger    Enqueuer
	db         Pinger
	logger     *logrus.Entry
	runTimeout time.Duration
}

type queuedResponse struct {
	Success bool   `json:"success"`
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// checkExpiring runs the expiry check synchronously. The run outlives a disconnecting
// client so that sends already in flight still get their flags persisted.
func (h *handlers) checkExpiring(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.runTimeout)
	defer cancel()

	summary := h.checker.RunExpiryCheck(ctx)
	if !summary.Success {
		h.logger.WithField("error", summary.Error).Error("Manual expiry check failed")
		writeJSON(w, http.StatusInternalServerError, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// queueCheck hands the run to the background trigger and returns immediately.
func (h *handlers) queueCheck(w http.ResponseWriter, r *http.Request) {
	queued := h.trigger.Request()
	msg := "Expiry check queued."
	if !queued {
		msg = "An expiry check is already queued."
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{Success: true, Queued: queued, Message: msg})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithError(err).Warn("Health check failed: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
