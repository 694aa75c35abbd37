package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

const maxBodyBytes = 64 << 10

type EnvironmentService interface {
	Current() environment.URLData
	LoadActiveEndpoints(ctx context.Context) environment.URLData
	SetPreAuthURLs(ctx context.Context, urls environment.URLData) error
}

type EnvironmentHandler struct {
	logger  *slog.Logger
	service EnvironmentService
}

func NewEnvironmentHandler(logger *slog.Logger, service EnvironmentService) *EnvironmentHandler {
	return &EnvironmentHandler{
		logger:  logger,
		service: service,
	}
}

// Current serves every derived URL of the active environment.
func (h *EnvironmentHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Current().Endpoints())
}

// Reload re-resolves the environment from the configured sources.
func (h *EnvironmentHandler) Reload(w http.ResponseWriter, r *http.Request) {
	urls := h.service.LoadActiveEndpoints(r.Context())
	writeJSON(w, http.StatusOK, urls.Endpoints())
}

// SetPreAuth activates the environment in the request body before sign-in.
func (h *EnvironmentHandler) SetPreAuth(w http.ResponseWriter, r *http.Request) {
	var urls environment.URLData

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&urls); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetPreAuthURLs(r.Context(), urls); err != nil {
		if errors.Is(err, environment.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to set pre-auth environment", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, urls.Endpoints())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
