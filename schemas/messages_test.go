package schemas

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeClientRequest(t *testing.T) {
	request, err := DecodeClientRequest([]byte(`{"ver":1,"type":"action","payload":{"kind":"click"}}`))
	if err != nil {
		t.Fatalf("decode valid request: %v", err)
	}
	if request.Type != TypeAction {
		t.Fatalf("expected type %q, got %q", TypeAction, request.Type)
	}
	if request.ClientId != 0 {
		t.Fatalf("expected sender id unset by decode, got %d", request.ClientId)
	}
}

func TestDecodeClientRequestRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `{"type":`,
		"unknown variant": `{"type":"teleport"}`,
		// The sender identity is attached by the channel; a payload
		// claiming one is rejected, not trusted.
		"forged sender": `{"type":"action","clientId":7}`,
	}

	for name, raw := range cases {
		if _, err := DecodeClientRequest([]byte(raw)); !errors.Is(err, MalformedMessage) {
			t.Fatalf("%s: expected MalformedMessage, got %v", name, err)
		}
	}
}

func TestGameOverMessagePreservesReportOrder(t *testing.T) {
	body, err := GameOverMessage(GameOverReport{
		FinalTick:     100,
		PlayerReports: []PlayerReport{{ClientId: 1, Score: 3}, {ClientId: 2, Score: 0}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded struct {
		Ver    int            `json:"ver"`
		Type   string         `json:"type"`
		Report GameOverReport `json:"report"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Ver != Version || decoded.Type != TypeGameOver {
		t.Fatalf("expected v%d %q envelope, got v%d %q", Version, TypeGameOver, decoded.Ver, decoded.Type)
	}
	if decoded.Report.FinalTick != 100 {
		t.Fatalf("expected final tick 100, got %d", decoded.Report.FinalTick)
	}
	if decoded.Report.PlayerReports[0].ClientId != 1 || decoded.Report.PlayerReports[1].ClientId != 2 {
		t.Fatalf("expected report order preserved, got %+v", decoded.Report.PlayerReports)
	}
}

func TestConnectInfoEncode(t *testing.T) {
	info := ConnectInfo{
		Endpoint:   "ws://localhost:8080",
		SessionId:  "abc",
		ClientId:   7,
		Credential: "secret",
	}

	encoded, err := info.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded ConnectInfo
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != info {
		t.Fatalf("expected round-trip %+v, got %+v", info, decoded)
	}
}

func TestSessionEndedEventWrapsReport(t *testing.T) {
	message, err := SessionEndedEvent("session-1", GameOverReport{
		FinalTick:     42,
		PlayerReports: []PlayerReport{{ClientId: 5, Score: 9}},
	})
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}

	var event PublisherEvent
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != "SessionEnded" {
		t.Fatalf("expected SessionEnded event, got %q", event.Type)
	}

	var content struct {
		SessionId string         `json:"sessionId"`
		Report    GameOverReport `json:"report"`
	}
	if err := json.Unmarshal([]byte(event.Content), &content); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if content.SessionId != "session-1" || content.Report.FinalTick != 42 {
		t.Fatalf("expected wrapped report, got %+v", content)
	}
}
