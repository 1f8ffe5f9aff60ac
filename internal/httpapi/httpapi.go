// Package httpapi exposes the combat engine over HTTP: encounter creation,
// action submission, the live NDJSON event stream, and the health probe.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/events"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/encounter"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/game/npc"
)

// Combat defines the orchestrator operations the handlers require.
type Combat interface {
	CreateEncounter(ctx context.Context, sessionID string, npcs []*combat.Combatant, positions map[string]grid.Position, rows, cols int) (*encounter.Encounter, error)
	Submit(ctx context.Context, req encounter.ActionRequest) (*encounter.Outcome, error)
}

// EncounterReader defines the encounter lookup the stream handler requires.
type EncounterReader interface {
	GetByID(ctx context.Context, id string) (*encounter.Encounter, error)
}

// HealthChecker reports backing-store health for the health probe.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// Handler serves the combat HTTP API.
type Handler struct {
	combat     Combat
	encounters EncounterReader
	monsters   *npc.Registry
	bus        *events.Bus
	health     HealthChecker
	linger     time.Duration
	gridRows   int
	gridCols   int
	logger     *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: every dependency must be non-nil; rows and cols must be > 0.
func NewHandler(
	cmb Combat,
	encounters EncounterReader,
	monsters *npc.Registry,
	bus *events.Bus,
	health HealthChecker,
	linger time.Duration,
	gridRows, gridCols int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		combat:     cmb,
		encounters: encounters,
		monsters:   monsters,
		bus:        bus,
		health:     health,
		linger:     linger,
		gridRows:   gridRows,
		gridCols:   gridCols,
		logger:     logger,
	}
}

// Routes returns the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/encounters", h.handleCreateEncounter)
	mux.HandleFunc("POST /api/actions", h.handleSubmitAction)
	mux.HandleFunc("GET /api/encounters/{id}/events", h.handleEventStream)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

type createEncounterRequest struct {
	SessionID          string   `json:"sessionId"`
	MonsterTemplateIDs []string `json:"monsterTemplateIds"`
}

func (h *Handler) handleCreateEncounter(w http.ResponseWriter, r *http.Request) {
	var req createEncounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, combat.ValidationError("undecodable request body: %v", err))
		return
	}
	if req.SessionID == "" {
		h.writeError(w, combat.ValidationError("sessionId must not be empty"))
		return
	}
	if len(req.MonsterTemplateIDs) == 0 {
		h.writeError(w, combat.ValidationError("monsterTemplateIds must not be empty"))
		return
	}

	npcs, positions, err := h.spawn(req.MonsterTemplateIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	enc, err := h.combat.CreateEncounter(r.Context(), req.SessionID, npcs, positions, h.gridRows, h.gridCols)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, enc)
}

// spawn instantiates combatants from the template list and places everyone on
// the grid: the player at the left edge's middle row, monsters in a column
// near the right edge. Duplicate template ids get numbered instance ids.
func (h *Handler) spawn(templateIDs []string) ([]*combat.Combatant, map[string]grid.Position, error) {
	npcs := make([]*combat.Combatant, 0, len(templateIDs))
	positions := map[string]grid.Position{
		combat.PlayerID: {Row: h.gridRows / 2, Col: 1},
	}
	counts := make(map[string]int, len(templateIDs))
	for i, id := range templateIDs {
		tmpl, ok := h.monsters.Get(id)
		if !ok {
			return nil, nil, combat.ValidationError("unknown monster template %q", id)
		}
		counts[id]++
		instanceID := fmt.Sprintf("%s-%d", id, counts[id])
		c := tmpl.Spawn(instanceID)
		npcs = append(npcs, c)

		row := (h.gridRows/2 - len(templateIDs)/2 + i + h.gridRows) % h.gridRows
		positions[instanceID] = grid.Position{Row: row, Col: h.gridCols - 2}
	}
	return npcs, positions, nil
}

func (h *Handler) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	var req encounter.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, combat.ValidationError("undecodable request body: %v", err))
		return
	}
	if req.SessionID == "" || req.CharacterID == "" || req.AbilityID == "" {
		h.writeError(w, combat.ValidationError("sessionId, characterId, and abilityId are required"))
		return
	}

	out, err := h.combat.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if out.Queued {
		h.writeJSON(w, http.StatusAccepted, out)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Health(r.Context(), 2*time.Second); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
	}
}

// writeError maps the combat error taxonomy onto HTTP statuses: malformed
// requests are 400, conflicts with encounter state are 409, everything else
// is a 500 with the detail kept out of the response body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, combat.ErrValidation):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, combat.ErrState), errors.Is(err, combat.ErrImpossibleAction):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, encounter.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	default:
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
