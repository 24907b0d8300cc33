package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) Start() error {
	s.LogMetricsInitialization()

	addr := s.Addr()

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
		s.logger.Infof("Starting HTTPS console gateway on %s", addr)
		return s.echo.StartTLS(addr, s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	s.logger.Infof("Starting HTTP console gateway on %s", addr)
	return s.echo.StartServer(server)
}

// Shutdown stops accepting requests and drops every open signing flow.
func (s *Server) Shutdown(ctx context.Context) error {
	s.resetFlows()
	return s.echo.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.config.Host + ":" + s.config.Port
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
