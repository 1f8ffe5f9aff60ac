package encounter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/events"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/narrator"
	"github.com/cory-johannsen/arena/internal/queue"
)

// ActionRequest is one player action as submitted over the wire and carried
// through the queue payload.
type ActionRequest struct {
	SessionID    string          `json:"sessionId"`
	CharacterID  string          `json:"characterId"`
	AbilityID    string          `json:"abilityId"`
	TargetID     string          `json:"targetId,omitempty"`
	AOEOrigin    *grid.Position  `json:"aoeOrigin,omitempty"`
	AOEDirection *grid.Direction `json:"aoeDirection,omitempty"`
}

// Outcome is the caller-facing result of submitting an action. Queued means
// another processor held the claim and the action will be drained by it; the
// remaining fields are only set when the caller's own action was processed.
type Outcome struct {
	ActionID  string          `json:"actionId"`
	Queued    bool            `json:"queued"`
	Result    json.RawMessage `json:"mechanicalResult,omitempty"`
	Encounter *Encounter      `json:"encounter,omitempty"`
}

// Orchestrator drives the turn state machine: resolve the player's action,
// run every hostile NPC's turn, then close the round or the encounter. Each
// phase persists its mutated state before emitting the matching event, so a
// subscriber observing an event can trust the store already reflects it.
//
// Phases run strictly sequentially. The only concurrency is across sessions;
// within a session the queue's transactional claim serializes processors.
type Orchestrator struct {
	store     Store
	players   PlayerStore
	abilities AbilityProvider
	resolver  *combat.Resolver
	queue     *queue.Queue
	bus       *events.Bus
	narrator  narrator.Narrator
	fallback  *narrator.TemplateNarrator
	logger    *zap.Logger
}

// NewOrchestrator wires the orchestrator. narr may be nil, in which case all
// narration comes from the local template fallback.
//
// Precondition: every other dependency must be non-nil.
func NewOrchestrator(
	store Store,
	players PlayerStore,
	abilities AbilityProvider,
	resolver *combat.Resolver,
	q *queue.Queue,
	bus *events.Bus,
	narr narrator.Narrator,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		players:   players,
		abilities: abilities,
		resolver:  resolver,
		queue:     q,
		bus:       bus,
		narrator:  narr,
		fallback:  narrator.NewTemplateNarrator(),
		logger:    logger,
	}
}

// CreateEncounter starts combat for the session.
//
// Precondition: positions must place every npc and combat.PlayerID on the
// grid; rows and cols must be > 0.
// Postcondition: The encounter is persisted active at round 1 before
// round_start is emitted; at most one active encounter exists per session.
func (o *Orchestrator) CreateEncounter(ctx context.Context, sessionID string, npcs []*combat.Combatant, positions map[string]grid.Position, rows, cols int) (*Encounter, error) {
	if _, err := o.store.ActiveBySession(ctx, sessionID); err == nil {
		return nil, combat.StateError("session %q already has an active encounter", sessionID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("encounter: checking active encounter: %w", err)
	}

	if _, ok := positions[combat.PlayerID]; !ok {
		return nil, combat.ValidationError("positions must place %q on the grid", combat.PlayerID)
	}
	for _, n := range npcs {
		if _, ok := positions[n.ID]; !ok {
			return nil, combat.ValidationError("positions must place npc %q on the grid", n.ID)
		}
	}

	enc := New(sessionID, npcs, positions, rows, cols)
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	if err := o.store.Save(ctx, enc); err != nil {
		return nil, fmt.Errorf("encounter: saving new encounter: %w", err)
	}

	o.logger.Info("encounter created",
		zap.String("encounter_id", enc.ID),
		zap.String("session_id", sessionID),
		zap.Int("npcs", len(npcs)),
	)
	o.bus.Emit(enc.ID, events.Event{
		Type:        events.TypeRoundStart,
		EncounterID: enc.ID,
		Round:       enc.Round,
	})
	return enc, nil
}

// Submit enqueues the action and drains the session's queue. If another
// processor holds the claim the action stays pending and a queued Outcome is
// returned; otherwise this caller becomes the session's processor and works
// through queued actions, its own included, until none remain.
func (o *Orchestrator) Submit(ctx context.Context, req ActionRequest) (*Outcome, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, combat.ValidationError("unencodable action request: %v", err)
	}
	actionID, err := o.queue.Enqueue(ctx, req.SessionID, payload)
	if err != nil {
		return nil, fmt.Errorf("encounter: enqueue: %w", err)
	}

	var mine *Outcome
	for {
		claimed, err := o.queue.ClaimNext(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("encounter: claim: %w", err)
		}
		if claimed == nil {
			if mine != nil {
				return mine, nil
			}
			return &Outcome{ActionID: actionID, Queued: true}, nil
		}

		out, perr := o.processClaimed(ctx, claimed)
		if perr != nil {
			if ferr := o.queue.Fail(ctx, claimed.SessionID, claimed.ID); ferr != nil {
				o.logger.Error("failing claimed action", zap.String("action_id", claimed.ID), zap.Error(ferr))
			}
			if claimed.ID == actionID {
				return nil, perr
			}
			o.logger.Warn("queued action failed during drain",
				zap.String("action_id", claimed.ID),
				zap.Error(perr),
			)
			continue
		}

		hasMore, err := o.queue.Complete(ctx, claimed.SessionID, claimed.ID)
		if err != nil {
			return nil, fmt.Errorf("encounter: complete: %w", err)
		}
		if claimed.ID == actionID {
			mine = out
			mine.ActionID = actionID
		}
		if !hasMore {
			if mine != nil {
				return mine, nil
			}
			return &Outcome{ActionID: actionID, Queued: true}, nil
		}
	}
}

func (o *Orchestrator) processClaimed(ctx context.Context, a *queue.Action) (*Outcome, error) {
	var req ActionRequest
	if err := json.Unmarshal(a.Payload, &req); err != nil {
		return nil, combat.ValidationError("undecodable action payload: %v", err)
	}
	req.SessionID = a.SessionID
	return o.ProcessAction(ctx, req)
}

// ProcessAction runs one full turn: the player's action, then every hostile
// NPC's attack, then the round boundary. It is normally reached through
// Submit; calling it directly bypasses queue serialization.
func (o *Orchestrator) ProcessAction(ctx context.Context, req ActionRequest) (*Outcome, error) {
	started := time.Now()

	enc, err := o.store.ActiveBySession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, combat.StateError("session %q has no active encounter", req.SessionID)
		}
		return nil, fmt.Errorf("encounter: loading active encounter: %w", err)
	}

	player, err := o.players.Load(ctx, req.CharacterID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, combat.ValidationError("unknown character %q", req.CharacterID)
		}
		return nil, fmt.Errorf("encounter: loading player: %w", err)
	}
	if !player.IsAlive() {
		return nil, combat.StateError("player %q has no hit points remaining", req.CharacterID)
	}

	ability, ok := o.abilities.Ability(req.AbilityID)
	if !ok {
		return nil, combat.ValidationError("unknown ability %q", req.AbilityID)
	}

	board := enc.Board()

	resultJSON, scene, err := o.resolvePlayerPhase(enc, player, ability, req, board)
	if err != nil {
		return nil, err
	}

	enc.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, enc); err != nil {
		return nil, fmt.Errorf("encounter: persisting player phase: %w", err)
	}
	o.bus.Emit(enc.ID, events.Event{
		Type:        events.TypePlayerTurn,
		EncounterID: enc.ID,
		Round:       enc.Round,
		ActorID:     combat.PlayerID,
		ActorName:   player.Name,
		TargetID:    req.TargetID,
		Result:      resultJSON,
		Narration:   o.narrate(ctx, enc.ID, scene),
	})

	dead, err := o.runNPCPhases(ctx, enc, player, req.CharacterID, board)
	if err != nil {
		return nil, err
	}
	if dead {
		return &Outcome{Result: resultJSON, Encounter: enc}, nil
	}

	if err := o.closeRound(ctx, enc, player); err != nil {
		return nil, err
	}

	o.logger.Info("action processed",
		zap.String("encounter_id", enc.ID),
		zap.String("session_id", req.SessionID),
		zap.String("ability_id", req.AbilityID),
		zap.Int("round", enc.Round),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &Outcome{Result: resultJSON, Encounter: enc}, nil
}

// resolvePlayerPhase resolves the player's ability use and applies damage to
// its target(s). No persistence happens here.
func (o *Orchestrator) resolvePlayerPhase(enc *Encounter, player *combat.Player, ability *combat.Ability, req ActionRequest, board *combat.Board) (json.RawMessage, narrator.Scene, error) {
	scene := narrator.Scene{
		Phase:       string(events.TypePlayerTurn),
		ActorName:   player.Name,
		AbilityName: ability.Name,
		Round:       enc.Round,
	}

	if ability.IsAOE() {
		shape, err := combat.BuildAOEShape(ability, board, combat.PlayerID, req.AOEOrigin, req.AOEDirection)
		if err != nil {
			return nil, scene, err
		}
		cells := shape.Cells(enc.GridRows, enc.GridCols)
		targets := combat.TargetsInShape(shape, board, enc.LivingNPCs())

		res, err := o.resolver.ResolveAOE(player, ability, targets, cells)
		if err != nil {
			return nil, scene, err
		}
		for _, outcome := range res.Targets {
			npc := enc.NPC(outcome.TargetID)
			if npc == nil || outcome.Damage <= 0 {
				continue
			}
			wasAlive := npc.IsAlive()
			npc.ApplyDamage(outcome.Damage)
			enc.Stats.DamageDealt += outcome.Damage
			if wasAlive && !npc.IsAlive() {
				enc.Stats.Kills++
			}
		}
		scene.TargetsHit = len(res.Targets)
		scene.Damage = res.DamageTotal

		raw, err := json.Marshal(res)
		if err != nil {
			return nil, scene, fmt.Errorf("encounter: encoding aoe result: %w", err)
		}
		return raw, scene, nil
	}

	var target *combat.Combatant
	if req.TargetID != "" {
		target = enc.NPC(req.TargetID)
		if target == nil {
			return nil, scene, combat.ValidationError("unknown target %q", req.TargetID)
		}
		if !target.IsAlive() {
			return nil, scene, combat.ImpossibleActionError("target %q is already down", req.TargetID)
		}
		scene.TargetName = target.Name
	}

	res, err := o.resolver.Resolve(player, ability, target, board, enc.FriendlyIDs())
	if err != nil {
		return nil, scene, err
	}
	if target != nil && res.Landed() && res.Damage > 0 {
		wasAlive := target.IsAlive()
		target.ApplyDamage(res.Damage)
		enc.Stats.DamageDealt += res.Damage
		if wasAlive && !target.IsAlive() {
			enc.Stats.Kills++
			scene.TargetDown = true
		}
	}
	if res.Crit {
		enc.Stats.Crits++
	}
	scene.Hit = res.Hit
	scene.Crit = res.Crit
	scene.Damage = res.Damage
	scene.SaveBased = res.Kind == combat.ResultSave
	scene.Saved = res.TargetSaved

	raw, err := json.Marshal(res)
	if err != nil {
		return nil, scene, fmt.Errorf("encounter: encoding result: %w", err)
	}
	return raw, scene, nil
}

// runNPCPhases iterates the turn order after the player, one hostile at a
// time. Returns true when the player died mid-loop; remaining NPCs are then
// skipped and the encounter is already closed out.
func (o *Orchestrator) runNPCPhases(ctx context.Context, enc *Encounter, player *combat.Player, characterID string, board *combat.Board) (bool, error) {
	for i := 1; i < len(enc.TurnOrder); i++ {
		npc := enc.NPC(enc.TurnOrder[i])
		if npc == nil || !npc.IsAlive() || !npc.IsHostile() {
			continue
		}
		enc.CurrentTurnIndex = i

		res, err := o.resolver.ResolveNPCAttack(npc, player, board)
		if err != nil {
			return false, err
		}
		if res.Hit && res.Damage > 0 {
			player.ApplyDamage(res.Damage)
			enc.Stats.DamageTaken += res.Damage
		}

		enc.UpdatedAt = time.Now().UTC()
		if err := o.store.Save(ctx, enc); err != nil {
			return false, fmt.Errorf("encounter: persisting npc phase: %w", err)
		}
		if err := o.players.Save(ctx, characterID, player); err != nil {
			return false, fmt.Errorf("encounter: persisting player hp: %w", err)
		}

		raw, merr := json.Marshal(res)
		if merr != nil {
			return false, fmt.Errorf("encounter: encoding npc result: %w", merr)
		}
		scene := narrator.Scene{
			Phase:       string(events.TypeNPCTurn),
			ActorName:   npc.Name,
			TargetName:  player.Name,
			AbilityName: npc.Name + " attack",
			Hit:         res.Hit,
			Crit:        res.Crit,
			Damage:      res.Damage,
			Round:       enc.Round,
		}
		o.bus.Emit(enc.ID, events.Event{
			Type:        events.TypeNPCTurn,
			EncounterID: enc.ID,
			Round:       enc.Round,
			ActorID:     npc.ID,
			ActorName:   npc.Name,
			TargetID:    combat.PlayerID,
			Damage:      res.Damage,
			Result:      raw,
			Narration:   o.narrate(ctx, enc.ID, scene),
		})
		o.emitState(enc)

		if !player.IsAlive() {
			enc.Status = StatusCompleted
			enc.Stats.Rounds = enc.Round
			enc.UpdatedAt = time.Now().UTC()
			if err := o.store.Save(ctx, enc); err != nil {
				return false, fmt.Errorf("encounter: persisting player death: %w", err)
			}
			o.logger.Info("player died",
				zap.String("encounter_id", enc.ID),
				zap.String("killer", npc.ID),
				zap.Int("round", enc.Round),
			)
			o.bus.Emit(enc.ID, events.Event{
				Type:        events.TypePlayerDead,
				EncounterID: enc.ID,
				Round:       enc.Round,
				ActorID:     combat.PlayerID,
				ActorName:   player.Name,
				Narration:   o.narrate(ctx, enc.ID, narrator.Scene{Phase: string(events.TypePlayerDead), ActorName: player.Name}),
			})
			return true, nil
		}
	}
	return false, nil
}

// closeRound recomputes survivors after a full NPC loop: completion when no
// hostile remains, otherwise the next round begins with a rebuilt turn order.
func (o *Orchestrator) closeRound(ctx context.Context, enc *Encounter, player *combat.Player) error {
	if len(enc.SurvivingHostiles()) == 0 {
		enc.Status = StatusCompleted
		enc.Stats.Rounds = enc.Round
		enc.UpdatedAt = time.Now().UTC()
		if err := o.store.Save(ctx, enc); err != nil {
			return fmt.Errorf("encounter: persisting completion: %w", err)
		}
		o.logger.Info("encounter completed",
			zap.String("encounter_id", enc.ID),
			zap.Int("rounds", enc.Stats.Rounds),
			zap.Int("kills", enc.Stats.Kills),
		)
		o.emitState(enc)
		o.bus.Emit(enc.ID, events.Event{
			Type:        events.TypeCombatEnd,
			EncounterID: enc.ID,
			Round:       enc.Round,
			ActorName:   player.Name,
			Narration:   o.narrate(ctx, enc.ID, narrator.Scene{Phase: string(events.TypeCombatEnd), ActorName: player.Name}),
		})
		return nil
	}

	endedRound := enc.Round
	enc.Stats.Rounds = endedRound
	enc.Round++
	enc.RebuildTurnOrder()
	enc.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, enc); err != nil {
		return fmt.Errorf("encounter: persisting round boundary: %w", err)
	}
	o.bus.Emit(enc.ID, events.Event{
		Type:        events.TypeRoundEnd,
		EncounterID: enc.ID,
		Round:       endedRound,
		Narration:   o.narrate(ctx, enc.ID, narrator.Scene{Phase: string(events.TypeRoundEnd), Round: endedRound}),
	})
	o.emitState(enc)
	return nil
}

func (o *Orchestrator) emitState(enc *Encounter) {
	snap, err := json.Marshal(enc)
	if err != nil {
		o.logger.Error("encoding encounter snapshot", zap.String("encounter_id", enc.ID), zap.Error(err))
		return
	}
	o.bus.Emit(enc.ID, events.Event{
		Type:        events.TypeStateUpdate,
		EncounterID: enc.ID,
		Round:       enc.Round,
		Encounter:   snap,
	})
}

// narrate renders the scene, falling back to the local template narrator so
// a model failure can never fail the turn. Model calls are skipped when no
// one is subscribed to the encounter.
func (o *Orchestrator) narrate(ctx context.Context, encounterID string, scene narrator.Scene) string {
	if o.narrator != nil && o.bus.HasListeners(encounterID) {
		if text, err := o.narrator.Narrate(ctx, scene); err == nil {
			return text
		}
	}
	text, _ := o.fallback.Narrate(ctx, scene)
	return text
}

