package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/clickfrenzy/sessioncore/entities"
	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/clickfrenzy/sessioncore/schemas"
	"github.com/clickfrenzy/sessioncore/services"
	"github.com/go-chi/chi/v5"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService services.SessionService
	operatorToken  string
	upgrader       websocket.Upgrader
}

func NewSessionHandler(
	router *chi.Mux,
	sessionService services.SessionService,
	operatorToken string,
	allowedOrigins []string,
) {
	origins := make(map[string]bool, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	sessionHandler := SessionHandler{
		sessionService: sessionService,
		operatorToken:  operatorToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no origin header.
				return origin == "" || origins[origin]
			},
		},
	}

	router.Post("/sessions", sessionHandler.create)
	router.Get("/sessions/{id}/join", sessionHandler.join)
}

func (sessionHandler SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Operator-Token")

	if subtle.ConstantTimeCompare([]byte(token), []byte(sessionHandler.operatorToken)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var initializer schemas.SessionInitializer

	err := decode(&initializer, r)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		logx.Logger.Info(err.Error(), zap.String("desc", "could not decode initializer"))
		return
	}

	response, err := sessionHandler.sessionService.Create(initializer)
	if err != nil {
		if errors.Is(err, entities.DuplicateIdentifier) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			encode(schemas.ErrorResponse{Message: "Duplicate client identifier."}, w)
			return
		}

		w.WriteHeader(http.StatusUnprocessableEntity)
		encode(schemas.ErrorResponse{Message: "Could not create session."}, w)
		return
	}

	w.WriteHeader(http.StatusCreated)

	encode(response, w)
}

func (sessionHandler SessionHandler) join(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "id")

	clientId, err := strconv.ParseInt(r.URL.Query().Get("clientId"), 10, 64)

	if err != nil {
		logx.Logger.Info("clientId is not provided or not an integer")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	credential := r.URL.Query().Get("credential")

	if credential == "" {
		logx.Logger.Info("credential is not provided")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	connection, err := sessionHandler.upgrader.Upgrade(w, r, nil)

	if err != nil {
		logx.Logger.Error(
			err.Error(),
			zap.String("desc", "could not upgrade http request"),
		)
		return
	}

	reader, err := sessionHandler.sessionService.Join(sessionId, clientId, credential, connection)

	if err != nil {
		logx.Logger.Info(
			err.Error(),
			zap.String("desc", "join rejected"),
			zap.String("sessionId", sessionId),
			zap.Int64("clientId", clientId),
		)

		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())

		if err := connection.WriteMessage(websocket.CloseMessage, message); err != nil {
			logx.Logger.Error(
				err.Error(),
				zap.String("desc", "could not write close message"),
			)
		}

		_ = connection.Close()

		return
	}

	reader()
}
