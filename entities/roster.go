package entities

import (
	"sort"
	"sync"
)

type Role uint8

const (
	RolePlayer Role = iota + 1
	RoleWatcher
)

func (role Role) String() string {
	switch role {
	case RolePlayer:
		return "player"
	case RoleWatcher:
		return "watcher"
	default:
		return "unknown"
	}
}

type rosterEntry struct {
	role      Role
	connected bool
}

// Roster maps client identifiers to their role and live transport state.
// Roles are assigned once and entries are never removed: a reconnecting
// identifier must resolve to the same role it held before the drop.
type Roster struct {
	mu      sync.Mutex
	entries map[int64]rosterEntry
}

func NewRoster() *Roster {
	return &Roster{entries: make(map[int64]rosterEntry)}
}

func (roster *Roster) Register(clientId int64, role Role) error {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	if _, exists := roster.entries[clientId]; exists {
		return DuplicateIdentifier
	}

	roster.entries[clientId] = rosterEntry{role: role}

	return nil
}

func (roster *Roster) RoleOf(clientId int64) (Role, error) {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	entry, exists := roster.entries[clientId]

	if !exists {
		return 0, UnknownClient
	}

	return entry.role, nil
}

func (roster *Roster) IsConnected(clientId int64) bool {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	return roster.entries[clientId].connected
}

// SetConnected tracks transport state only; role and any player state
// survive a disconnect untouched.
func (roster *Roster) SetConnected(clientId int64, connected bool) error {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	entry, exists := roster.entries[clientId]

	if !exists {
		return UnknownClient
	}

	entry.connected = connected
	roster.entries[clientId] = entry

	return nil
}

// Players returns every player identifier in ascending order.
func (roster *Roster) Players() []int64 {
	return roster.collect(func(entry rosterEntry) bool {
		return entry.role == RolePlayer
	})
}

// Connected returns every connected identifier in ascending order,
// watchers included.
func (roster *Roster) Connected() []int64 {
	return roster.collect(func(entry rosterEntry) bool {
		return entry.connected
	})
}

// ConnectedPlayers returns connected player identifiers in ascending
// order, for messages watchers must not receive.
func (roster *Roster) ConnectedPlayers() []int64 {
	return roster.collect(func(entry rosterEntry) bool {
		return entry.connected && entry.role == RolePlayer
	})
}

func (roster *Roster) Size() int {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	return len(roster.entries)
}

func (roster *Roster) collect(keep func(rosterEntry) bool) []int64 {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	ids := make([]int64, 0, len(roster.entries))

	for clientId, entry := range roster.entries {
		if keep(entry) {
			ids = append(ids, clientId)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
