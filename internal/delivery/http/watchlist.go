package http

import (
	"coinwatch/internal/dto"
	"coinwatch/internal/model"
	"coinwatch/pkg/logger"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupWatchlist(g *echo.Group) {
	g.GET("/users/:userID/watchlist", h.GetWatchlist)
	g.PUT("/users/:userID/watchlist/:assetID", h.UpsertWatchEntry)
	g.DELETE("/users/:userID/watchlist/:assetID", h.DeleteWatchEntry)
	g.PUT("/users/:userID/preferences", h.UpdatePreferences)
	g.GET("/users/:userID/activity", h.GetActivity)
	g.GET("/users/:userID/monitor", h.GetMonitorStatus)
}

func (h *HttpAPIHandler) GetWatchlist(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	entries, err := h.repo.WatchlistRepo.GetByUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("Failed to get watchlist", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get watchlist")
	}

	return c.JSON(http.StatusOK, entries)
}

// UpsertWatchEntry creates or updates one watch entry and restarts the
// user's monitor so the next poll reflects the change immediately.
func (h *HttpAPIHandler) UpsertWatchEntry(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	assetID := c.Param("assetID")
	if assetID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "asset id is required")
	}

	var req dto.UpsertWatchEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	entry := &model.WatchEntry{
		UserID:         userID,
		AssetID:        assetID,
		ThresholdPrice: req.ThresholdPrice,
		IsInvested:     req.IsInvested,
	}
	if err := h.repo.WatchlistRepo.Upsert(ctx, entry); err != nil {
		h.log.Error("Failed to upsert watch entry", logger.ErrorField(err),
			logger.IntField("user_id", int(userID)), logger.StringField("asset_id", assetID))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save watch entry")
	}

	h.recordActivity(c, userID, model.ActivityWatchlistChange, "watch entry updated for "+assetID, map[string]interface{}{
		"asset_id":        assetID,
		"threshold_price": req.ThresholdPrice,
		"is_invested":     req.IsInvested,
	})

	if err := h.service.Supervisor.Restart(ctx, userID); err != nil {
		h.log.Error("Failed to restart monitor after watchlist change", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}

	return c.JSON(http.StatusOK, entry)
}

func (h *HttpAPIHandler) DeleteWatchEntry(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	assetID := c.Param("assetID")

	ctx := c.Request().Context()
	if err := h.repo.WatchlistRepo.Delete(ctx, userID, assetID); err != nil {
		h.log.Error("Failed to delete watch entry", logger.ErrorField(err),
			logger.IntField("user_id", int(userID)), logger.StringField("asset_id", assetID))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete watch entry")
	}

	h.recordActivity(c, userID, model.ActivityWatchlistChange, "watch entry removed for "+assetID, map[string]interface{}{
		"asset_id": assetID,
	})

	// Restart rather than stop: EnsureStarted inside Restart retires the
	// monitor naturally when the watch-list went empty.
	if err := h.service.Supervisor.Restart(ctx, userID); err != nil {
		h.log.Error("Failed to restart monitor after watchlist change", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *HttpAPIHandler) UpdatePreferences(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	var req dto.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prefs := dto.DevicePrefs{
		EnableLED:      *req.EnableLED,
		EnableBuzzer:   *req.EnableBuzzer,
		LEDBrightness:  req.LEDBrightness,
		BuzzerVolume:   req.BuzzerVolume,
		BuzzerDuration: req.BuzzerDuration,
		LEDBlinkSpeed:  req.LEDBlinkSpeed,
	}

	ctx := c.Request().Context()
	if err := h.repo.UserRepo.UpdateDevicePrefs(ctx, userID, prefs); err != nil {
		h.log.Error("Failed to update preferences", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update preferences")
	}

	h.recordActivity(c, userID, model.ActivitySettingsUpdate, "output preferences updated", map[string]interface{}{
		"prefs": prefs,
	})

	if err := h.service.Supervisor.Restart(ctx, userID); err != nil {
		h.log.Error("Failed to restart monitor after preferences change", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}

	return c.JSON(http.StatusOK, prefs)
}

func (h *HttpAPIHandler) GetActivity(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	activities, err := h.repo.UserActivityRepo.RecentByUser(c.Request().Context(), userID, limit)
	if err != nil {
		h.log.Error("Failed to get user activity", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get activity")
	}

	return c.JSON(http.StatusOK, activities)
}

func (h *HttpAPIHandler) GetMonitorStatus(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	status, exists := h.service.Supervisor.Status(userID)
	resp := dto.MonitorStatusResponse{
		UserID:  userID,
		Running: exists && status.Running,
	}
	if !status.LastPollAt.IsZero() {
		resp.LastPollAt = status.LastPollAt.Format(time.RFC3339)
	}
	if status.LastError != nil {
		resp.LastError = status.LastError.Error()
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *HttpAPIHandler) recordActivity(c echo.Context, userID uint, activityType model.ActivityType, description string, details map[string]interface{}) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = nil
	}
	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		Description:  description,
		Details:      raw,
	}
	if err := h.repo.UserActivityRepo.Create(c.Request().Context(), activity); err != nil {
		h.log.Warn("Failed to record user activity", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}
}

func parseUserID(c echo.Context) (uint, error) {
	raw := c.Param("userID")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return uint(parsed), nil
}
