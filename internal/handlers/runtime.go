package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
)

// RuntimeController plays or pauses a character for a player.
type RuntimeController interface {
	Apply(ctx context.Context, playerID, characterID string, action session.RuntimeAction) (session.RuntimeState, error)
}

// ChoiceResolver answers a character's pending crossroads.
type ChoiceResolver interface {
	Resolve(ctx context.Context, characterID, key string) (*heartbeat.Resolution, error)
}

type RuntimeRequest struct {
	PlayerID    string `json:"playerID"`
	CharacterID string `json:"characterID"`
	Action      string `json:"action"`
}

type RuntimeResponse struct {
	Success bool         `json:"success"`
	Runtime RuntimeState `json:"runtime"`
}

type RuntimeState struct {
	RuntimeState session.RuntimeState `json:"runtimeState"`
}

type ResolveChoiceRequest struct {
	PlayerID    string `json:"playerID"`
	CharacterID string `json:"characterID"`
	Choice      string `json:"choice"`
}

type ResolveChoiceResponse struct {
	Success bool `json:"success"`
	*heartbeat.Resolution
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RuntimeHandler struct {
	runtime  RuntimeController
	resolver ChoiceResolver
	logger   *slog.Logger
}

func NewRuntimeHandler(runtime RuntimeController, resolver ChoiceResolver, logger *slog.Logger) *RuntimeHandler {
	return &RuntimeHandler{
		runtime:  runtime,
		resolver: resolver,
		logger:   logger,
	}
}

// ServeHTTP routes /v1/runtime/heartbeat and /v1/runtime/resolve-choice.
func (h *RuntimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/v1/runtime/heartbeat":
		h.handleHeartbeat(w, r)
	case "/v1/runtime/resolve-choice":
		h.handleResolveChoice(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *RuntimeHandler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req RuntimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	action := session.RuntimeAction(strings.ToLower(strings.TrimSpace(req.Action)))
	if req.PlayerID == "" || req.CharacterID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "playerID and characterID are required")
		return
	}
	if action != session.ActionPlay && action != session.ActionPause {
		writeError(w, h.logger, http.StatusBadRequest, "action must be 'play' or 'pause'")
		return
	}

	state, err := h.runtime.Apply(r.Context(), req.PlayerID, req.CharacterID, action)
	if err != nil {
		switch {
		case errors.Is(err, heartbeat.ErrCharacterNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Character not found")
		case errors.Is(err, heartbeat.ErrCharacterDead):
			writeError(w, h.logger, http.StatusForbidden, "Character is dead")
		case errors.Is(err, session.ErrNoActiveSession):
			writeError(w, h.logger, http.StatusConflict, "No active socket session for player")
		default:
			h.logger.Error("Failed to apply runtime action",
				"error", err,
				"player_id", req.PlayerID,
				"character_id", req.CharacterID,
				"action", action)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to update runtime")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, RuntimeResponse{
		Success: true,
		Runtime: RuntimeState{RuntimeState: state},
	})
}

func (h *RuntimeHandler) handleResolveChoice(w http.ResponseWriter, r *http.Request) {
	var req ResolveChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.CharacterID == "" || req.Choice == "" {
		writeError(w, h.logger, http.StatusBadRequest, "characterID and choice are required")
		return
	}

	res, err := h.resolver.Resolve(r.Context(), req.CharacterID, strings.TrimSpace(req.Choice))
	if err != nil {
		switch {
		case errors.Is(err, heartbeat.ErrNoPendingChoice), errors.Is(err, heartbeat.ErrInvalidChoice):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		case errors.Is(err, heartbeat.ErrCharacterNotFound), errors.Is(err, heartbeat.ErrChoiceNotFound):
			writeError(w, h.logger, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("Failed to resolve choice",
				"error", err,
				"player_id", req.PlayerID,
				"character_id", req.CharacterID)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to resolve choice")
		}
		return
	}

	h.logger.Info("Choice resolved",
		"player_id", req.PlayerID,
		"character_id", req.CharacterID,
		"resolution", res.Resolution)
	writeJSON(w, h.logger, http.StatusOK, ResolveChoiceResponse{Success: true, Resolution: res})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}
