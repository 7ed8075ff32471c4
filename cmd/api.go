package cmd

import (
	"coinwatch/internal/delivery/http"
	"coinwatch/internal/delivery/ws"
	"coinwatch/pkg/middleware"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type HTTPServer struct {
	ctx       context.Context
	appDep    *AppDependency
	handler   *http.HttpAPIHandler
	wsHandler *ws.Handler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *http.HttpAPIHandler, wsHandler *ws.Handler) *HTTPServer {
	return &HTTPServer{
		ctx:       ctx,
		appDep:    appDep,
		handler:   handler,
		wsHandler: wsHandler,
	}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info("Starting HTTP server", zap.Int("port", s.appDep.cfg.API.Port))
	address := fmt.Sprintf(":%d", s.appDep.cfg.API.Port)

	s.appDep.echo.Use(middleware.RateLimiter(s.appDep.cfg.API.RateLimitRPS, s.appDep.cfg.API.RateLimitBurst))

	s.handler.SetupRoutes()
	s.wsHandler.SetupRoutes(s.appDep.echo)

	return s.appDep.echo.Start(address)
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		err := s.appDep.echo.Shutdown(ctx)
		if err != nil {
			s.appDep.log.Error("Error When Stop HTTP server", zap.Error(err))
		}
		stopDone <- nil
	}()

	select {
	case <-stopDone:
		s.appDep.log.Info("HTTP server stopped successfully")
	case <-ctx.Done():
		s.appDep.log.Warn("Timeout while stopping HTTP server, forcing shutdown")
	}
	return nil
}
