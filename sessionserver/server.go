package sessionserver

import (
	"time"

	"github.com/clickfrenzy/sessioncore/entities"
	"github.com/clickfrenzy/sessioncore/handlers"
	"github.com/clickfrenzy/sessioncore/pkg/logx"
	"github.com/clickfrenzy/sessioncore/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// SessionServer wires the hub, services and HTTP surface together and
// owns the clock that drives every session's state machine.
type SessionServer struct {
	router *chi.Mux
	hub    *entities.Hub
	config Config
}

// NewSessionServer builds a session server from the provided
// configuration and starts the hub dispatch loop and the tick runner.
func NewSessionServer(config Config) *SessionServer {
	logx.NewLogger()

	config.normalize()

	hub := entities.NewHub(config.Context, config.DispatchBufferSize)

	publisherService := services.NewPublisherService(
		config.Publisher.Redis.Host,
		config.Publisher.Redis.Port,
		config.Publisher.Redis.Password,
	)

	sessionService := services.NewSessionService(
		hub,
		publisherService,
		config.Handler,
		config.PublicEndpoint,
		config.ClientSendBufferSize,
	)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Router.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Operator-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers.NewSessionHandler(router, sessionService, config.OperatorToken, config.Router.AllowedOrigins)

	sessionServer := &SessionServer{
		router: router,
		hub:    hub,
		config: config,
	}

	go hub.Run()
	go sessionServer.runTicks()

	return sessionServer
}

// runTicks is the external clock: one call per discrete time step into
// every live session. Sessions themselves never sleep or busy-wait.
func (server *SessionServer) runTicks() {
	ticker := time.NewTicker(time.Second / time.Duration(server.config.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-server.config.Context.Done():
			return
		case <-ticker.C:
			server.hub.Sessions.Range(func(sessionId string, session *entities.Session) bool {
				session.AdvanceTick()
				return true
			})
		}
	}
}

// GetRouter returns the configured router.
func (server *SessionServer) GetRouter() *chi.Mux {
	return server.router
}

// GetHub returns the hub instance.
func (server *SessionServer) GetHub() *entities.Hub {
	return server.hub
}

// Shutdown provides explicit shutdown for immediate cleanup. The hub
// also shuts down on its own when the caller cancels the context.
func (server *SessionServer) Shutdown() {
	server.hub.Sessions.Range(func(sessionId string, session *entities.Session) bool {
		session.Clients.Range(func(clientId int64, client *entities.Client) bool {
			client.Kick()
			return true
		})
		return true
	})
}
