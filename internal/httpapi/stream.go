package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/events"
)

// streamBuffer bounds how many undelivered frames a slow client may lag
// behind before frames are dropped. Bus listeners must not block.
const streamBuffer = 64

// handleEventStream serves the live combat event stream as NDJSON, one event
// per line, flushed per frame. The stream opens with a state_update snapshot
// of the encounter, then relays bus events. After a terminal event the
// connection lingers briefly so the final frames drain, then closes.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	encounterID := r.PathValue("id")

	enc, err := h.encounters.GetByID(r.Context(), encounterID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	// Subscribe before writing the snapshot so no event emitted after the
	// snapshot read can be missed.
	frames := make(chan events.Event, streamBuffer)
	unsubscribe := h.bus.Subscribe(encounterID, func(ev events.Event) {
		select {
		case frames <- ev:
		default:
			h.logger.Warn("event stream buffer full, dropping frame",
				zap.String("encounter_id", encounterID),
				zap.String("type", string(ev.Type)),
			)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	snap, err := json.Marshal(enc)
	if err != nil {
		h.logger.Error("encoding stream snapshot", zap.String("encounter_id", encounterID), zap.Error(err))
		return
	}
	if !h.writeFrame(w, flusher, events.Event{
		Type:        events.TypeStateUpdate,
		EncounterID: encounterID,
		Round:       enc.Round,
		Encounter:   snap,
	}) {
		return
	}

	var linger <-chan time.Time
	for {
		select {
		case <-r.Context().Done():
			return
		case <-linger:
			return
		case ev := <-frames:
			if !h.writeFrame(w, flusher, ev) {
				return
			}
			if ev.Type.Terminal() && linger == nil {
				linger = time.After(h.linger)
			}
		}
	}
}

// writeFrame writes one NDJSON frame and flushes it. Returns false when the
// client is gone.
func (h *Handler) writeFrame(w http.ResponseWriter, flusher http.Flusher, ev events.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encoding event frame", zap.Error(err))
		return true
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
