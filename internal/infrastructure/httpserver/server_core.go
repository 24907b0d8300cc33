package httpserver

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/application/signing"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	customMiddleware "github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/middleware"
	"github.com/avatarctic/contract-admin/internal/query"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	Sessions       ports.SessionService
	Resources      *resources.Resources
	Store          *query.Store
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	sessions       ports.SessionService
	res            *resources.Resources
	store          *query.Store
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker

	// one signing flow per contract and signer
	flowsMu sync.Mutex
	flows   map[flowKey]*signing.Flow
}

type flowKey struct {
	contractID int
	signerID   int
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		sessions:       deps.Sessions,
		res:            deps.Resources,
		store:          deps.Store,
		healthCheckers: deps.HealthCheckers,
		flows:          make(map[flowKey]*signing.Flow),
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.Sessions,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetOpenStreams(),
		),
	}

	e.HTTPErrorHandler = server.errorHandler

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
