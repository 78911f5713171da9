package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func seededStore(t *testing.T) *PlayerStore {
	t.Helper()

	store := NewPlayerStore()

	err := store.Initialize([]PlayerState{
		{ClientId: 5, Name: "charlie"},
		{ClientId: 1, Name: "alpha"},
		{ClientId: 3, Name: "bravo"},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	return store
}

func TestStoreInitializeOnlyOnce(t *testing.T) {
	store := seededStore(t)

	err := store.Initialize([]PlayerState{{ClientId: 9}})
	if !errors.Is(err, AlreadyInitialized) {
		t.Fatalf("expected AlreadyInitialized, got %v", err)
	}

	// The rejected call must not have touched the existing players.
	if got := len(store.Snapshot()); got != 3 {
		t.Fatalf("expected 3 players, got %d", got)
	}
}

func TestStoreApplyUnknownPlayer(t *testing.T) {
	store := seededStore(t)

	_, err := store.Apply(99, func(state *PlayerState) error {
		state.Score++
		return nil
	})
	if !errors.Is(err, UnknownPlayer) {
		t.Fatalf("expected UnknownPlayer, got %v", err)
	}
}

func TestStoreApplyCommitsOnlyOnSuccess(t *testing.T) {
	store := seededStore(t)

	rejected := errors.New("rejected by game logic")

	_, err := store.Apply(1, func(state *PlayerState) error {
		state.Score = 42
		return rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected handler error, got %v", err)
	}

	state, err := store.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Score != 0 {
		t.Fatalf("expected failed apply to leave score 0, got %d", state.Score)
	}

	updated, err := store.Apply(1, func(state *PlayerState) error {
		state.Score++
		return nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Score != 1 {
		t.Fatalf("expected score 1 after apply, got %d", updated.Score)
	}

	// The returned state is a copy, not an alias of the live store.
	updated.Score = 100

	state, err = store.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Score != 1 {
		t.Fatalf("expected live score 1, got %d", state.Score)
	}
}

func TestStoreSnapshotIsOrderedDetachedAndIdempotent(t *testing.T) {
	store := seededStore(t)

	first := store.Snapshot()

	ids := make([]int64, 0, len(first))
	for _, state := range first {
		ids = append(ids, state.ClientId)
	}
	if !reflect.DeepEqual(ids, []int64{1, 3, 5}) {
		t.Fatalf("expected snapshot order [1 3 5], got %v", ids)
	}

	// Two snapshots with no intervening mutation are byte-for-byte equal.
	second := store.Snapshot()

	firstBytes, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first snapshot: %v", err)
	}
	secondBytes, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second snapshot: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Fatalf("expected identical snapshots, got %s vs %s", firstBytes, secondBytes)
	}

	// Mutating a snapshot must not leak into the store.
	first[0].Score = 77

	state, err := store.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Score != 0 {
		t.Fatalf("expected live score 0 after snapshot mutation, got %d", state.Score)
	}
}

func TestStoreSetConnectedKeepsScore(t *testing.T) {
	store := seededStore(t)

	if _, err := store.Apply(3, func(state *PlayerState) error {
		state.Score = 8
		return nil
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := store.SetConnected(3, true); err != nil {
		t.Fatalf("set connected: %v", err)
	}
	if err := store.SetConnected(3, false); err != nil {
		t.Fatalf("set disconnected: %v", err)
	}

	state, err := store.Get(3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Score != 8 {
		t.Fatalf("expected score to survive disconnect, got %d", state.Score)
	}
	if state.Connected {
		t.Fatalf("expected connected=false after disconnect")
	}

	if err := store.SetConnected(99, true); !errors.Is(err, UnknownPlayer) {
		t.Fatalf("expected UnknownPlayer, got %v", err)
	}
}
