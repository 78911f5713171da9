package entities

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/clickfrenzy/sessioncore/pkg/syncx"
	"github.com/clickfrenzy/sessioncore/schemas"
	"github.com/gorilla/websocket"
)

type Phase uint8

const (
	PhaseInit Phase = iota
	PhasePrep
	PhasePlay
	PhaseGameOver
)

func (phase Phase) String() string {
	switch phase {
	case PhaseInit:
		return "init"
	case PhasePrep:
		return "prep"
	case PhasePlay:
		return "play"
	case PhaseGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// SessionContext carries the tick accounting for one session. The tick
// counter is monotone and never wraps.
type SessionContext struct {
	DurationTicks    uint64
	PrepTimeoutTicks uint64
	Seeds            map[int64]int64
	CurrentTick      uint64
}

// ActionHandler is the pluggable game-logic hook. It receives a draft of
// the player's state together with the raw action payload, the player's
// deterministic seed and the current tick. Returning an error rejects
// the action and leaves the store untouched.
type ActionHandler func(state *PlayerState, payload json.RawMessage, seed int64, tick uint64) error

// Transition is emitted on every phase change. Report is set only when
// entering PhaseGameOver.
type Transition struct {
	From   Phase
	To     Phase
	Tick   uint64
	Report *schemas.GameOverReport
}

// Session drives one game from Init to GameOver for a fixed set of
// clients. Transport goroutines only validate and enqueue through
// SubmitRequest; all state mutation happens inside AdvanceTick, which is
// called once per discrete time step by an external clock.
type Session struct {
	Id        string
	CreatedAt int64
	Roster    *Roster
	Store     *PlayerStore
	Clients   syncx.Map[int64, *Client]

	dispatch chan<- *schemas.DispatcherMessage
	handler  ActionHandler

	mu          sync.Mutex
	phase       Phase
	sctx        SessionContext
	inbox       []schemas.ClientRequest
	ready       map[int64]bool
	transitions chan Transition
}

// NewSession consumes the initializer and wires the session's registry,
// store and tick context. Duplicate identifiers across the player and
// watcher sets are fatal: the session must not start with an
// inconsistent registry.
func NewSession(
	id string,
	initializer schemas.SessionInitializer,
	dispatch chan<- *schemas.DispatcherMessage,
	handler ActionHandler,
) (*Session, error) {
	if initializer.DurationTicks == 0 {
		return nil, errors.New("session duration must be at least one tick")
	}

	if handler == nil {
		return nil, errors.New("action handler is required")
	}

	session := &Session{
		Id:        id,
		CreatedAt: time.Now().Unix(),
		Roster:    NewRoster(),
		Store:     NewPlayerStore(),
		dispatch:  dispatch,
		handler:   handler,
		phase:     PhaseInit,
		sctx: SessionContext{
			DurationTicks:    initializer.DurationTicks,
			PrepTimeoutTicks: initializer.PrepTimeoutTicks,
			Seeds:            make(map[int64]int64),
		},
		ready:       make(map[int64]bool),
		transitions: make(chan Transition, 4),
	}

	states := make([]PlayerState, 0, len(initializer.Players))

	for _, player := range initializer.Players {
		if err := session.Roster.Register(player.ClientId, RolePlayer); err != nil {
			return nil, err
		}

		session.sctx.Seeds[player.ClientId] = player.Seed

		states = append(states, PlayerState{
			ClientId: player.ClientId,
			Name:     player.Name,
		})
	}

	for _, watcherId := range initializer.Watchers {
		if err := session.Roster.Register(watcherId, RoleWatcher); err != nil {
			return nil, err
		}
	}

	if err := session.Store.Initialize(states); err != nil {
		return nil, err
	}

	session.transitions <- session.transitionLocked(PhasePrep, nil)

	return session, nil
}

func (session *Session) Phase() Phase {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.phase
}

func (session *Session) Tick() uint64 {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.sctx.CurrentTick
}

// Transitions exposes phase-change events. The channel is closed after
// the terminal GameOver transition has been delivered.
func (session *Session) Transitions() <-chan Transition {
	return session.transitions
}

// SubmitRequest validates an inbound envelope and stages it for the next
// tick. Requests from unknown identifiers are dropped, never queued.
// A rejected request never reaches game logic; the offending client is
// notified only when it holds the player role, since watchers do not
// receive player-only diagnostics.
func (session *Session) SubmitRequest(clientId int64, raw []byte) error {
	role, err := session.Roster.RoleOf(clientId)

	if err != nil {
		return err
	}

	request, err := schemas.DecodeClientRequest(raw)

	if err != nil {
		session.notifyDenied(clientId, role, "", schemas.ReasonMalformed)
		return err
	}

	request.ClientId = clientId

	session.mu.Lock()
	gateErr := session.gateLocked(role, request)

	if gateErr == nil {
		session.inbox = append(session.inbox, request)
	}
	session.mu.Unlock()

	if gateErr != nil {
		reason := schemas.ReasonWrongPhase

		if errors.Is(gateErr, PermissionDenied) {
			reason = schemas.ReasonPermissionDenied
		}

		session.notifyDenied(clientId, role, request.Type, reason)

		return gateErr
	}

	return nil
}

// gateLocked enforces role and phase gating at arrival time. Both
// request kinds mutate session state, so watchers are rejected outright.
func (session *Session) gateLocked(role Role, request schemas.ClientRequest) error {
	if role != RolePlayer {
		return PermissionDenied
	}

	switch request.Type {
	case schemas.TypeReady:
		if session.phase != PhasePrep {
			return WrongPhase
		}
	case schemas.TypeAction:
		if session.phase != PhasePlay {
			return WrongPhase
		}
	}

	return nil
}

// AdvanceTick runs one frame: process every staged request in arrival
// order, advance the tick counter by one, evaluate phase transitions and
// flush outbound messages. It is driven by an external clock and never
// blocks on network I/O.
func (session *Session) AdvanceTick() {
	session.mu.Lock()

	if session.phase == PhaseGameOver {
		// Terminal. The clock may keep firing but the counter must not move.
		session.inbox = nil
		session.mu.Unlock()
		return
	}

	pending := session.inbox
	session.inbox = nil

	var outbound []*schemas.DispatcherMessage
	var transitions []Transition

	for _, request := range pending {
		switch request.Type {
		case schemas.TypeReady:
			if session.phase != PhasePrep {
				continue
			}

			session.ready[request.ClientId] = true
		case schemas.TypeAction:
			if session.phase != PhasePlay {
				// The phase moved between arrival and processing; the
				// request is discarded rather than carried across phases.
				continue
			}

			outbound = append(outbound, session.applyActionLocked(request)...)
		}
	}

	session.sctx.CurrentTick++

	if session.phase == PhasePrep {
		// Prep starts at tick zero, so the counter doubles as time-in-prep.
		expired := session.sctx.PrepTimeoutTicks > 0 && session.sctx.CurrentTick >= session.sctx.PrepTimeoutTicks

		if session.allPlayersReadyLocked() || expired {
			transitions = append(transitions, session.transitionLocked(PhasePlay, nil))

			if body, err := session.fullSyncLocked(); err == nil {
				outbound = append(outbound, &schemas.DispatcherMessage{
					SessionId:   session.Id,
					ReceiverIds: session.Roster.Connected(),
					Body:        body,
				})
			}
		}
	}

	gameOver := false

	if session.phase == PhasePlay && session.sctx.CurrentTick >= session.sctx.DurationTicks {
		report := session.reportLocked()
		transitions = append(transitions, session.transitionLocked(PhaseGameOver, &report))
		gameOver = true

		if body, err := schemas.GameOverMessage(report); err == nil {
			outbound = append(outbound, &schemas.DispatcherMessage{
				SessionId:   session.Id,
				ReceiverIds: session.Roster.Connected(),
				Body:        body,
			})
		}

		if body, err := schemas.ClosingMessage(report.FinalTick); err == nil {
			outbound = append(outbound, &schemas.DispatcherMessage{
				SessionId:   session.Id,
				ReceiverIds: session.Roster.Connected(),
				Body:        body,
			})
		}
	}

	session.mu.Unlock()

	for _, message := range outbound {
		session.dispatch <- message
	}

	for _, transition := range transitions {
		session.transitions <- transition
	}

	if gameOver {
		close(session.transitions)
	}
}

// MarkConnected records a transport event in the registry and, for
// players, mirrors it into the state store. Score and role are untouched.
func (session *Session) MarkConnected(clientId int64, connected bool) error {
	role, err := session.Roster.RoleOf(clientId)

	if err != nil {
		return err
	}

	if err := session.Roster.SetConnected(clientId, connected); err != nil {
		return err
	}

	if role == RolePlayer {
		if err := session.Store.SetConnected(clientId, connected); err != nil {
			return err
		}
	}

	return nil
}

// Attach binds a fresh connection to a registered client and performs
// replication repair: the full sync is placed first in the new send
// queue while the session lock is held, so every update produced by a
// later tick is delivered only after the sync. Stale updates from
// earlier ticks may still trail in, which is why updates carry a tick
// stamp the client can compare against its sync base.
func (session *Session) Attach(client *Client, connection *websocket.Conn) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.MarkConnected(client.Id, true); err != nil {
		return err
	}

	body, err := session.fullSyncLocked()

	if err != nil {
		return err
	}

	client.Attach(connection, body)

	return nil
}

// Detach records a transport drop for the reader that served the given
// connection. A rejoin may already have attached a fresh connection; in
// that case the stale reader's teardown is a no-op so the repaired
// attachment survives. The session lock makes the identity check atomic
// against a concurrent Attach.
func (session *Session) Detach(client *Client, connection *websocket.Conn) (bool, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if !client.release(connection) {
		return false, nil
	}

	return true, session.MarkConnected(client.Id, false)
}

// FullSync renders the current replicated view; reconnect repair and the
// Play-start broadcast are built from it.
func (session *Session) FullSync() ([]byte, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	return session.fullSyncLocked()
}

func (session *Session) fullSyncLocked() ([]byte, error) {
	snapshot := session.Store.Snapshot()

	players := make([]schemas.PlayerSync, 0, len(snapshot))

	for _, state := range snapshot {
		players = append(players, schemas.PlayerSync{
			ClientId:  state.ClientId,
			Name:      state.Name,
			Score:     state.Score,
			Connected: state.Connected,
		})
	}

	return schemas.FullSyncMessage(session.sctx.CurrentTick, session.phase.String(), players)
}

func (session *Session) applyActionLocked(request schemas.ClientRequest) []*schemas.DispatcherMessage {
	seed := session.sctx.Seeds[request.ClientId]
	tick := session.sctx.CurrentTick

	updated, err := session.Store.Apply(request.ClientId, func(state *PlayerState) error {
		return session.handler(state, request.Payload, seed, tick)
	})

	if err != nil {
		body, encodeErr := schemas.DeniedMessage(request.Type, schemas.ReasonRejected)

		if encodeErr != nil {
			return nil
		}

		return []*schemas.DispatcherMessage{{
			SessionId:   session.Id,
			ReceiverIds: []int64{request.ClientId},
			Body:        body,
		}}
	}

	body, err := schemas.UpdateMessage(tick, updated.ClientId, updated.Score)

	if err != nil {
		return nil
	}

	return []*schemas.DispatcherMessage{{
		SessionId:   session.Id,
		ReceiverIds: session.Roster.Connected(),
		Body:        body,
	}}
}

func (session *Session) allPlayersReadyLocked() bool {
	players := session.Roster.Players()

	if len(players) == 0 {
		return false
	}

	for _, clientId := range players {
		if !session.ready[clientId] {
			return false
		}
	}

	return true
}

func (session *Session) reportLocked() schemas.GameOverReport {
	snapshot := session.Store.Snapshot()

	reports := make([]schemas.PlayerReport, 0, len(snapshot))

	for _, state := range snapshot {
		reports = append(reports, schemas.PlayerReport{
			ClientId: state.ClientId,
			Score:    state.Score,
		})
	}

	return schemas.GameOverReport{
		FinalTick:     session.sctx.CurrentTick,
		PlayerReports: reports,
	}
}

func (session *Session) transitionLocked(to Phase, report *schemas.GameOverReport) Transition {
	transition := Transition{
		From:   session.phase,
		To:     to,
		Tick:   session.sctx.CurrentTick,
		Report: report,
	}

	session.phase = to

	return transition
}

func (session *Session) notifyDenied(clientId int64, role Role, requestType, reason string) {
	if role != RolePlayer {
		return
	}

	body, err := schemas.DeniedMessage(requestType, reason)

	if err != nil {
		return
	}

	session.dispatch <- &schemas.DispatcherMessage{
		SessionId:   session.Id,
		ReceiverIds: []int64{clientId},
		Body:        body,
	}
}
