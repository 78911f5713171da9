package schemas

import "encoding/json"

// InitializerPlayer seeds one player slot: identity, display name and the
// deterministic seed handed to game logic.
type InitializerPlayer struct {
	ClientId int64  `json:"clientId"`
	Name     string `json:"name,omitempty"`
	Seed     int64  `json:"seed"`
}

// SessionInitializer is consumed exactly once when a session is created.
type SessionInitializer struct {
	DurationTicks    uint64              `json:"durationTicks"`
	PrepTimeoutTicks uint64              `json:"prepTimeoutTicks,omitempty"`
	Players          []InitializerPlayer `json:"players"`
	Watchers         []int64             `json:"watchers,omitempty"`
}

// ConnectInfo is the serialized bundle handed to a spawned client
// process. It is generated once per client and never reused across
// sessions; the launcher treats it as opaque.
type ConnectInfo struct {
	Endpoint   string `json:"endpoint"`
	SessionId  string `json:"sessionId"`
	ClientId   int64  `json:"clientId"`
	Credential string `json:"credential"`
}

func (info ConnectInfo) Encode() (string, error) {
	encoded, err := json.Marshal(info)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

type CreateSessionResponse struct {
	SessionId    string        `json:"sessionId"`
	ConnectInfos []ConnectInfo `json:"connectInfos"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
