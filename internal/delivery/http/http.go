package http

import (
	"coinwatch/internal/repository"
	"coinwatch/internal/service"
	"coinwatch/pkg/logger"
	"context"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	log       *logger.Logger
	service   *service.Service
	repo      *repository.Repository
}

func NewHttpAPIHandler(ctx context.Context, e *echo.Echo, validator *goValidator.Validate, log *logger.Logger, svc *service.Service, repo *repository.Repository) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      e,
		validator: validator,
		log:       log,
		service:   svc,
		repo:      repo,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupWatchlist(base)
	h.SetupSession(base)
	h.SetupCoins(base)
}
