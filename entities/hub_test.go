package entities

import (
	"context"
	"testing"
	"time"

	"github.com/clickfrenzy/sessioncore/schemas"
)

func TestHubRoutesToReceiversOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx, 16)

	initializer := schemas.SessionInitializer{
		DurationTicks: 10,
		Players: []schemas.InitializerPlayer{
			{ClientId: 1}, {ClientId: 2},
		},
	}

	session, err := NewSession("session-1", initializer, hub.Dispatch, incrementHandler)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	first := &Client{Id: 1, SessionId: session.Id, Role: RolePlayer, Message: make(chan []byte, 4)}
	second := &Client{Id: 2, SessionId: session.Id, Role: RolePlayer, Message: make(chan []byte, 4)}
	session.Clients.Store(first.Id, first)
	session.Clients.Store(second.Id, second)
	hub.Sessions.Store(session.Id, session)

	go hub.Run()

	hub.Dispatch <- &schemas.DispatcherMessage{
		SessionId:   session.Id,
		ReceiverIds: []int64{1, 42},
		Body:        []byte("hello"),
	}

	select {
	case body := <-first.Message:
		if string(body) != "hello" {
			t.Fatalf("expected body %q, got %q", "hello", body)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected delivery to receiver 1")
	}

	select {
	case body := <-second.Message:
		t.Fatalf("expected no delivery to client 2, got %q", body)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubShutdownKicksClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(ctx, 16)

	initializer := schemas.SessionInitializer{
		DurationTicks: 10,
		Players:       []schemas.InitializerPlayer{{ClientId: 1}},
	}

	session, err := NewSession("session-1", initializer, hub.Dispatch, incrementHandler)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	client := &Client{Id: 1, SessionId: session.Id, Role: RolePlayer, Message: make(chan []byte, 4)}
	session.Clients.Store(client.Id, client)
	hub.Sessions.Store(session.Id, session)

	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected hub loop to stop on context cancellation")
	}

	if _, ok := <-client.Message; ok {
		t.Fatalf("expected client channel closed after shutdown")
	}
}
