package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/clickfrenzy/sessioncore/entities"
	"github.com/clickfrenzy/sessioncore/schemas"
)

func noopHandler(state *entities.PlayerState, payload json.RawMessage, seed int64, tick uint64) error {
	return nil
}

func TestCreateLeavesNoSessionBehindWhenPublishFails(t *testing.T) {
	hub := entities.NewHub(context.Background(), 16)

	// Nothing listens on this port, so the created event cannot be
	// delivered.
	publisher := NewPublisherService("127.0.0.1", "1", "")

	sessionService := NewSessionService(hub, publisher, noopHandler, "ws://localhost:8080", 50)

	response, err := sessionService.Create(schemas.SessionInitializer{
		DurationTicks: 10,
		Players:       []schemas.InitializerPlayer{{ClientId: 1, Name: "alpha"}},
	})
	if err == nil {
		t.Fatalf("expected create to fail when the created event cannot be published")
	}
	if response != nil {
		t.Fatalf("expected no response, got %+v", response)
	}

	// A failed create discards the connect-info bundles, so a session
	// left in the hub could never be joined or removed.
	if got := hub.Sessions.Len(); got != 0 {
		t.Fatalf("expected no session registered after failed create, got %d", got)
	}
}
