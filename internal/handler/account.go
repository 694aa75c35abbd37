package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

// AccountStore records which account is signed in and where it lives.
type AccountStore interface {
	SetActiveAccount(ctx context.Context, userID string, urls environment.URLData) error
	SignOut(ctx context.Context) error
}

type signInRequest struct {
	UserID string              `json:"userId"`
	URLs   environment.URLData `json:"urls"`
}

func (r signInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.URLs),
	)
}

// AccountHandler signs accounts in and out and re-resolves the environment
// after each change.
type AccountHandler struct {
	logger  *slog.Logger
	store   AccountStore
	service EnvironmentService
}

func NewAccountHandler(logger *slog.Logger, store AccountStore, service EnvironmentService) *AccountHandler {
	return &AccountHandler{
		logger:  logger,
		store:   store,
		service: service,
	}
}

func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SetActiveAccount(r.Context(), req.UserID, req.URLs); err != nil {
		h.logger.Error("Failed to store active account",
			slog.String("user_id", req.UserID),
			slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("Account signed in", slog.String("user_id", req.UserID))

	urls := h.service.LoadActiveEndpoints(r.Context())
	writeJSON(w, http.StatusOK, urls.Endpoints())
}

func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		h.logger.Error("Failed to sign out", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("Account signed out")

	urls := h.service.LoadActiveEndpoints(r.Context())
	writeJSON(w, http.StatusOK, urls.Endpoints())
}
