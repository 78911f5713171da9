package entities

import (
	"context"

	"github.com/clickfrenzy/sessioncore/pkg/syncx"
	"github.com/clickfrenzy/sessioncore/schemas"
)

// Hub owns the live sessions and fans dispatcher messages out to the
// per-client send queues. It never touches session state; routing only.
type Hub struct {
	Sessions syncx.Map[string, *Session]

	Context context.Context

	Dispatch chan *schemas.DispatcherMessage
}

// NewHub creates a hub whose lifetime is bound to the given context.
// When the caller cancels it, every client is kicked and the dispatch
// loop returns.
func NewHub(ctx context.Context, dispatchBufferSize int) *Hub {
	bufferSize := dispatchBufferSize

	if bufferSize <= 0 {
		bufferSize = 500
	}

	return &Hub{
		Context:  ctx,
		Dispatch: make(chan *schemas.DispatcherMessage, bufferSize),
	}
}

// Run drives the dispatch loop. Messages are delivered in dispatch
// order, so for any single client the queue order equals send order.
func (hub *Hub) Run() {
	for {
		select {
		case <-hub.Context.Done():
			hub.Sessions.Range(func(sessionId string, session *Session) bool {
				session.Clients.Range(func(clientId int64, client *Client) bool {
					client.Kick()
					return true
				})
				return true
			})
			return
		case message := <-hub.Dispatch:
			if session := hub.FindSession(message.SessionId); session != nil {
				for _, receiverId := range message.ReceiverIds {
					if client, ok := session.Clients.Load(receiverId); ok {
						func() {
							client.mutex.Lock()
							defer client.mutex.Unlock()

							if !client.IsClosed {
								client.Message <- message.Body
							}
						}()
					}
				}
			}
		}
	}
}

func (hub *Hub) FindSession(id string) *Session {
	session, exists := hub.Sessions.Load(id)

	if !exists {
		return nil
	}

	return session
}

// RemoveSession kicks every client and drops the session to prevent
// memory leaks once the orchestrator has torn the game down.
func (hub *Hub) RemoveSession(sessionId string) {
	if session, exists := hub.Sessions.Load(sessionId); exists {
		session.Clients.Range(func(clientId int64, client *Client) bool {
			client.Kick()
			return true
		})
		hub.Sessions.Delete(sessionId)
	}
}
