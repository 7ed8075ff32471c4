package http

import (
	"coinwatch/internal/model"
	"coinwatch/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Session lifecycle hooks. The auth layer in front of this API calls these
// when a user logs in or out; the engine reacts by starting or retiring the
// user's monitor worker.
func (h *HttpAPIHandler) SetupSession(g *echo.Group) {
	g.POST("/session/:userID/active", h.UserActive)
	g.POST("/session/:userID/inactive", h.UserInactive)
}

func (h *HttpAPIHandler) UserActive(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.service.Supervisor.EnsureStarted(ctx, userID); err != nil {
		h.log.Error("Failed to start monitor for active user", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start monitor")
	}

	h.recordActivity(c, userID, model.ActivityLogin, "user session active", nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"status":  "active",
	})
}

func (h *HttpAPIHandler) UserInactive(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	h.service.Supervisor.Stop(userID)
	h.recordActivity(c, userID, model.ActivityLogout, "user session inactive", nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"status":  "inactive",
	})
}
