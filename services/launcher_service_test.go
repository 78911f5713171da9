package services

import (
	"errors"
	"os"
	"testing"

	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/clickfrenzy/sessioncore/schemas"
)

func TestMain(m *testing.M) {
	logx.NewLogger()
	os.Exit(m.Run())
}

func TestLaunchGameProcessReportsSpawnFailure(t *testing.T) {
	launcherService := NewLauncherService()

	_, err := launcherService.LaunchGameProcess("/nonexistent/game-binary", schemas.SessionInitializer{
		DurationTicks: 100,
		Players:       []schemas.InitializerPlayer{{ClientId: 1}},
	})
	if !errors.Is(err, SpawnError) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestLaunchClientProcessReportsSpawnFailure(t *testing.T) {
	launcherService := NewLauncherService()

	_, err := launcherService.LaunchClientProcess("/nonexistent/client-binary", schemas.ConnectInfo{
		Endpoint:   "ws://localhost:8080",
		SessionId:  "session-1",
		ClientId:   1,
		Credential: "secret",
	})
	if !errors.Is(err, SpawnError) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestRandIDIsUniquePerCall(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := randID()
		if len(id) != 32 {
			t.Fatalf("expected 32 hex characters, got %d (%q)", len(id), id)
		}
		if seen[id] {
			t.Fatalf("expected unique credentials, got duplicate %q", id)
		}
		seen[id] = true
	}
}
