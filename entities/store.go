package entities

import (
	"sort"
	"sync"
)

// PlayerState is one player's mutable gameplay state. It is created at
// session initialization and persists through disconnects so the score
// is retained on reconnect.
type PlayerState struct {
	ClientId  int64  `json:"clientId"`
	Name      string `json:"name,omitempty"`
	Score     uint64 `json:"score"`
	Connected bool   `json:"connected"`
}

// PlayerStore owns all PlayerState for a session. Mutation goes through
// Apply on the tick-processing goroutine; everything else only ever sees
// snapshot copies.
type PlayerStore struct {
	mu          sync.Mutex
	initialized bool
	players     map[int64]*PlayerState
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[int64]*PlayerState)}
}

// Initialize consumes the initializer's player map. It may only be
// called once.
func (store *PlayerStore) Initialize(players []PlayerState) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.initialized {
		return AlreadyInitialized
	}

	for _, player := range players {
		state := player
		store.players[player.ClientId] = &state
	}

	store.initialized = true

	return nil
}

// Apply runs a game-logic mutation against one player's state. The
// mutation is staged on a copy and committed only when it succeeds, so a
// rejected action leaves the store untouched.
func (store *PlayerStore) Apply(clientId int64, mutate func(state *PlayerState) error) (PlayerState, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	state, exists := store.players[clientId]

	if !exists {
		return PlayerState{}, UnknownPlayer
	}

	draft := *state

	if err := mutate(&draft); err != nil {
		return PlayerState{}, err
	}

	*state = draft

	return draft, nil
}

func (store *PlayerStore) SetConnected(clientId int64, connected bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	state, exists := store.players[clientId]

	if !exists {
		return UnknownPlayer
	}

	state.Connected = connected

	return nil
}

func (store *PlayerStore) Get(clientId int64) (PlayerState, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	state, exists := store.players[clientId]

	if !exists {
		return PlayerState{}, UnknownPlayer
	}

	return *state, nil
}

// Snapshot returns a copy of every player's state at a single consistent
// point in time, ordered by ascending client id. It never aliases the
// live store.
func (store *PlayerStore) Snapshot() []PlayerState {
	store.mu.Lock()
	defer store.mu.Unlock()

	snapshot := make([]PlayerState, 0, len(store.players))

	for _, state := range store.players {
		snapshot = append(snapshot, *state)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ClientId < snapshot[j].ClientId
	})

	return snapshot
}
