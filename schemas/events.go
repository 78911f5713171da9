package schemas

import (
	"encoding/json"
)

type PublisherEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func SessionCreatedEvent(sessionId string, playerCount, watcherCount int) (string, error) {
	type SessionCreatedContent struct {
		SessionId    string `json:"sessionId"`
		PlayerCount  int    `json:"playerCount"`
		WatcherCount int    `json:"watcherCount"`
	}

	content := SessionCreatedContent{
		SessionId:    sessionId,
		PlayerCount:  playerCount,
		WatcherCount: watcherCount,
	}

	return encode("SessionCreated", content)
}

// SessionEndedEvent carries the tick-stamped game-over report to external
// report collectors.
func SessionEndedEvent(sessionId string, report GameOverReport) (string, error) {
	type SessionEndedContent struct {
		SessionId string         `json:"sessionId"`
		Report    GameOverReport `json:"report"`
	}

	content := SessionEndedContent{
		SessionId: sessionId,
		Report:    report,
	}

	return encode("SessionEnded", content)
}

func encode(eventType string, content any) (string, error) {
	message, err := json.Marshal(content)
	if err != nil {
		return "", err
	}

	event := PublisherEvent{
		Type:    eventType,
		Content: string(message),
	}

	e, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	return string(e), nil
}
