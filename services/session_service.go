package services

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/clickfrenzy/sessioncore/entities"
	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/clickfrenzy/sessioncore/schemas"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type SessionService struct {
	hub              *entities.Hub
	publisherService PublisherService
	handler          entities.ActionHandler
	endpoint         string
	clientSendBuffer int
}

func NewSessionService(
	hub *entities.Hub,
	publisherService PublisherService,
	handler entities.ActionHandler,
	endpoint string,
	clientSendBuffer int,
) SessionService {
	return SessionService{
		hub:              hub,
		publisherService: publisherService,
		handler:          handler,
		endpoint:         endpoint,
		clientSendBuffer: clientSendBuffer,
	}
}

var (
	InvalidCredential = errors.New("credential is not valid")
	SessionNotFound   = errors.New("session not found")
	ClientNotFound    = errors.New("client not found")
)

// Create consumes the initializer, builds the session with its registry
// and state store, and issues one connect-info bundle per client. The
// credential inside each bundle is generated here and never reused
// across sessions.
func (sessionService SessionService) Create(initializer schemas.SessionInitializer) (*schemas.CreateSessionResponse, error) {
	session, err := entities.NewSession(
		bson.NewObjectID().Hex(),
		initializer,
		sessionService.hub.Dispatch,
		sessionService.handler,
	)

	if err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not create session from initializer"),
		)
		return nil, err
	}

	connectInfos := make([]schemas.ConnectInfo, 0, len(initializer.Players)+len(initializer.Watchers))

	for _, player := range initializer.Players {
		client := &entities.Client{
			Id:          player.ClientId,
			SessionId:   session.Id,
			Role:        entities.RolePlayer,
			Name:        player.Name,
			Credential:  randID(),
			IsConnected: false,
			IsClosed:    true,
			SendBuffer:  sessionService.clientSendBuffer,
		}

		session.Clients.Store(player.ClientId, client)

		connectInfos = append(connectInfos, schemas.ConnectInfo{
			Endpoint:   sessionService.endpoint,
			SessionId:  session.Id,
			ClientId:   player.ClientId,
			Credential: client.Credential,
		})
	}

	for _, watcherId := range initializer.Watchers {
		client := &entities.Client{
			Id:          watcherId,
			SessionId:   session.Id,
			Role:        entities.RoleWatcher,
			Credential:  randID(),
			IsConnected: false,
			IsClosed:    true,
			SendBuffer:  sessionService.clientSendBuffer,
		}

		session.Clients.Store(watcherId, client)

		connectInfos = append(connectInfos, schemas.ConnectInfo{
			Endpoint:   sessionService.endpoint,
			SessionId:  session.Id,
			ClientId:   watcherId,
			Credential: client.Credential,
		})
	}

	message, err := schemas.SessionCreatedEvent(session.Id, len(initializer.Players), len(initializer.Watchers))

	if err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("sessionId", session.Id),
			zap.String("desc", "could not create SessionCreatedEvent"),
		)
		return nil, err
	}

	// The session becomes reachable only once the created event is out.
	// A failed publish discards the connect-info bundles, so storing the
	// session first would leave it ticking in the hub with no way to
	// join or remove it.
	if err := sessionService.publisherService.Publish(message); err != nil {
		return nil, err
	}

	sessionService.hub.Sessions.Store(session.Id, session)

	go sessionService.watchTransitions(session)

	return &schemas.CreateSessionResponse{
		SessionId:    session.Id,
		ConnectInfos: connectInfos,
	}, nil
}

// Join attaches a connection to a registered client. A reconnecting
// identifier resolves to the same client entry, so it keeps its role and
// score; the attach places a full state sync first in the fresh send
// queue instead of replaying historical updates.
func (sessionService SessionService) Join(
	sessionId string,
	clientId int64,
	credential string,
	connection *websocket.Conn,
) (func(), error) {
	session := sessionService.hub.FindSession(sessionId)

	if session == nil {
		return nil, SessionNotFound
	}

	client, exists := session.Clients.Load(clientId)

	if !exists {
		return nil, ClientNotFound
	}

	if credential == "" || client.Credential != credential {
		return nil, InvalidCredential
	}

	client.Kick()

	if err := session.Attach(client, connection); err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not attach client to session"),
			zap.String("sessionId", sessionId),
			zap.Int64("clientId", clientId),
		)
		return nil, err
	}

	go client.Write()

	return func() {
		entities.Read(client, session)
	}, nil
}

func (sessionService SessionService) watchTransitions(session *entities.Session) {
	for transition := range session.Transitions() {
		logx.Logger.Info(
			"session phase changed",
			zap.String("sessionId", session.Id),
			zap.String("from", transition.From.String()),
			zap.String("to", transition.To.String()),
			zap.Uint64("tick", transition.Tick),
		)

		if transition.To != entities.PhaseGameOver || transition.Report == nil {
			continue
		}

		message, err := schemas.SessionEndedEvent(session.Id, *transition.Report)

		if err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("sessionId", session.Id),
				zap.String("desc", "could not create SessionEndedEvent"),
			)
			continue
		}

		// Publish already logs its own failures; the session is over
		// either way.
		_ = sessionService.publisherService.Publish(message)
	}
}

func randID() string {
	b := make([]byte, 16)
	_, _ = crand.Read(b)
	return hex.EncodeToString(b)
}
