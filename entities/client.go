package entities

import (
	"sync"

	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/gorilla/websocket"

	"go.uber.org/zap"
)

// Client is one registered identifier's transport endpoint. It exists
// for the whole session even while disconnected; only Connection and the
// send channel are replaced on reconnect.
type Client struct {
	Id         int64
	SessionId  string
	Role       Role
	Name       string
	Credential string

	IsConnected bool
	// To keep track of closed channel
	IsClosed   bool
	Connection *websocket.Conn
	Message    chan []byte
	// SendBuffer caps the outbound queue swapped in on attach; 0 means
	// the default of 50.
	SendBuffer int
	mutex      sync.Mutex
}

// Different scenarios for 'close of closed channel'
// 1) If user opens duplicate tab and closes the first one

func (client *Client) Kick() {
	// We are using mutex to make sure IsClosed value is evaluated correctly
	// when reading its value at the same time.
	// https://go101.org/article/channel-closing.html
	client.mutex.Lock()

	defer client.mutex.Unlock()

	if !client.IsClosed {
		close(client.Message)
		client.IsClosed = true
	}

	// Client may have never connected, so the connection can be nil.
	if client.Connection != nil {
		err := client.Connection.Close()

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "could not close client connection"),
				zap.Int64("clientId", client.Id),
			)
		}
	}

	client.IsConnected = false
}

// Attach swaps in a fresh connection and send queue. The greeting (the
// full state sync) is queued before the client becomes eligible for hub
// deliveries, so it is always the first message on the new connection.
func (client *Client) Attach(connection *websocket.Conn, greeting []byte) {
	client.mutex.Lock()

	defer client.mutex.Unlock()

	size := client.SendBuffer

	if size <= 0 {
		size = 50
	}

	client.Connection = connection
	client.Message = make(chan []byte, size)
	client.Message <- greeting
	client.IsClosed = false
	client.IsConnected = true
}

// release is Kick gated on connection identity. A reader whose
// connection has already been replaced by a rejoin must leave the fresh
// attachment alone.
func (client *Client) release(connection *websocket.Conn) bool {
	client.mutex.Lock()

	defer client.mutex.Unlock()

	if client.Connection != connection {
		return false
	}

	if !client.IsClosed {
		close(client.Message)
		client.IsClosed = true
	}

	if client.Connection != nil {
		err := client.Connection.Close()

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "could not close client connection"),
				zap.Int64("clientId", client.Id),
			)
		}
	}

	client.IsConnected = false

	return true
}

func (client *Client) Write() {
	defer client.Kick()

	for {
		message, ok := <-client.Message

		if !ok {
			logx.Logger.Info(
				"client channel is closed!",
				zap.Int64("clientId", client.Id),
			)
			break
		}

		err := client.Connection.WriteMessage(websocket.TextMessage, message)

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "could not write client message"),
				zap.Int64("clientId", client.Id),
			)
		}
	}
}

// Read pumps inbound frames into the session's message channel until the
// transport drops, then records the disconnect. Role and score persist;
// only the connected flags change. The teardown is keyed to the
// connection this reader serves: a rejoin may have swapped in a fresh
// one while the read was blocked, and kicking then would close the
// repaired attachment.
func Read(client *Client, session *Session) {
	client.mutex.Lock()
	connection := client.Connection
	client.mutex.Unlock()

	defer func() {
		detached, err := session.Detach(client, connection)

		if !detached {
			return
		}

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "could not mark client disconnected"),
				zap.Int64("clientId", client.Id),
			)
		}
	}()

	for {
		_, message, err := connection.ReadMessage()

		if err != nil {
			logx.Logger.Info(
				err.Error(),
				zap.String("desc", "client connection dropped"),
				zap.Int64("clientId", client.Id),
			)
			break
		}

		if err := session.SubmitRequest(client.Id, message); err != nil {
			logx.Logger.Info(
				err.Error(),
				zap.String("desc", "rejected client request"),
				zap.String("sessionId", session.Id),
				zap.Int64("clientId", client.Id),
			)
		}
	}
}
