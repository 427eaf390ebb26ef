// Package handler provides HTTP handlers for the runner.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/jobs"
)

const maxBodyBytes = 5 << 20

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// RunHandler accepts dispatch requests relayed from the front service.
type RunHandler struct {
	selection  string
	dispatcher core.Dispatcher
	logger     *slog.Logger
}

// NewRunHandler creates a handler that runs requests matching selection.
func NewRunHandler(selection string, dispatcher core.Dispatcher, logger *slog.Logger) *RunHandler {
	return &RunHandler{selection: selection, dispatcher: dispatcher, logger: logger}
}

// Handle decodes a DispatchRequest and runs it synchronously so the relay
// sees whether the runner failed.
func (h *RunHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req core.DispatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("could not decode dispatch request", "error", err)
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := jobs.ValidateRequest(&req); err != nil {
		h.logger.Warn("rejecting incomplete dispatch request", "request_id", req.RequestID, "error", err)
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if !Selected(h.selection, &req) {
		h.logger.Debug("skipping event not selected by this runner",
			"selection", h.selection, "event_name", req.EventName, "action", req.Action, "request_id", req.RequestID)
		_, _ = fmt.Fprint(w, "skipped")
		return
	}

	// A relay disconnect must not abort a dispatch that already created a check run.
	ctx := context.WithoutCancel(r.Context())
	if err := h.dispatcher.HandleDispatch(ctx, &req); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_server_error", "something went wrong")
		return
	}

	_, _ = fmt.Fprint(w, "ok")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorCode: code, Message: message})
}
