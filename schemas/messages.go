package schemas

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client request type identifiers.
const (
	TypeReady  = "ready"
	TypeAction = "action"
)

// Game message type identifiers.
const (
	TypeFullSync = "fullSync"
	TypeUpdate   = "update"
	TypeGameOver = "gameOver"
	TypeDenied   = "denied"
	TypeClosing  = "closing"
)

// Rejection reason codes carried by denied diagnostics.
const (
	ReasonPermissionDenied = "permissionDenied"
	ReasonWrongPhase       = "wrongPhase"
	ReasonMalformed        = "malformedMessage"
	ReasonRejected         = "rejected"
)

var MalformedMessage = errors.New("message cannot be decoded")

// ClientRequest is the inbound envelope. ClientId is attached by the
// message channel after the sender has been resolved on the transport;
// it is never read from the payload, so a client cannot forge it.
type ClientRequest struct {
	Ver      int             `json:"ver,omitempty"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	ClientId int64           `json:"-"`
}

// DecodeClientRequest parses an inbound envelope. Unknown variants and
// unexpected fields fail with MalformedMessage rather than being ignored.
func DecodeClientRequest(raw []byte) (ClientRequest, error) {
	var request ClientRequest

	d := json.NewDecoder(bytes.NewReader(raw))

	d.DisallowUnknownFields()

	if err := d.Decode(&request); err != nil {
		return ClientRequest{}, MalformedMessage
	}

	switch request.Type {
	case TypeReady, TypeAction:
	default:
		return ClientRequest{}, MalformedMessage
	}

	return request, nil
}

// PlayerSync is one player's replicated view inside a full state sync.
type PlayerSync struct {
	ClientId  int64  `json:"clientId"`
	Name      string `json:"name,omitempty"`
	Score     uint64 `json:"score"`
	Connected bool   `json:"connected"`
}

// PlayerReport is one row of the game-over report.
type PlayerReport struct {
	ClientId int64  `json:"clientId"`
	Score    uint64 `json:"score"`
}

// GameOverReport is the terminal snapshot delivered to clients and to
// external report collectors. PlayerReports is ordered by ascending
// client id.
type GameOverReport struct {
	FinalTick     uint64         `json:"finalTick"`
	PlayerReports []PlayerReport `json:"playerReports"`
}

type fullSyncMessage struct {
	Ver     int          `json:"ver"`
	Type    string       `json:"type"`
	Tick    uint64       `json:"tick"`
	Phase   string       `json:"phase"`
	Players []PlayerSync `json:"players"`
}

type updateMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Tick     uint64 `json:"tick"`
	ClientId int64  `json:"clientId"`
	Score    uint64 `json:"score"`
}

type gameOverMessage struct {
	Ver    int            `json:"ver"`
	Type   string         `json:"type"`
	Report GameOverReport `json:"report"`
}

type deniedMessage struct {
	Ver         int    `json:"ver"`
	Type        string `json:"type"`
	RequestType string `json:"requestType,omitempty"`
	Reason      string `json:"reason"`
}

type closingMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	FinalTick uint64 `json:"finalTick"`
}

// FullSyncMessage renders the replicated view of every player as of the
// given tick. Reconnecting clients replace their local replica with it
// instead of replaying historical updates.
func FullSyncMessage(tick uint64, phase string, players []PlayerSync) ([]byte, error) {
	return json.Marshal(fullSyncMessage{
		Ver:     Version,
		Type:    TypeFullSync,
		Tick:    tick,
		Phase:   phase,
		Players: players,
	})
}

// UpdateMessage renders an incremental score update. Updates are
// tick-stamped so a freshly synced client can discard deltas older than
// its sync base.
func UpdateMessage(tick uint64, clientId int64, score uint64) ([]byte, error) {
	return json.Marshal(updateMessage{
		Ver:      Version,
		Type:     TypeUpdate,
		Tick:     tick,
		ClientId: clientId,
		Score:    score,
	})
}

func GameOverMessage(report GameOverReport) ([]byte, error) {
	return json.Marshal(gameOverMessage{
		Ver:    Version,
		Type:   TypeGameOver,
		Report: report,
	})
}

// DeniedMessage renders the diagnostic sent back to a player whose
// request was rejected.
func DeniedMessage(requestType, reason string) ([]byte, error) {
	return json.Marshal(deniedMessage{
		Ver:         Version,
		Type:        TypeDenied,
		RequestType: requestType,
		Reason:      reason,
	})
}

// ClosingMessage renders the final disconnect notice sent after the
// game-over report.
func ClosingMessage(finalTick uint64) ([]byte, error) {
	return json.Marshal(closingMessage{
		Ver:       Version,
		Type:      TypeClosing,
		FinalTick: finalTick,
	})
}

// DispatcherMessage routes an already-encoded game message through the
// hub to a set of receivers within one session.
type DispatcherMessage struct {
	SessionId   string
	ReceiverIds []int64
	Body        []byte
}
