package ws

import (
	"coinwatch/internal/model"
	"coinwatch/internal/repository"
	"coinwatch/internal/service"
	"coinwatch/pkg/logger"
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler upgrades dashboard and device connections to websockets and
// subscribes them as transports on the user's room.
type Handler struct {
	log          *logger.Logger
	bus          *service.SubscriberBus
	svc          *service.Service
	userRepo     repository.UserRepository
	activityRepo repository.UserActivityRepository
	upgrader     websocket.Upgrader
}

func NewHandler(log *logger.Logger, svc *service.Service, userRepo repository.UserRepository, activityRepo repository.UserActivityRepository) *Handler {
	return &Handler{
		log:          log,
		bus:          svc.Bus,
		svc:          svc,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) SetupRoutes(e *echo.Echo) {
	e.GET("/ws/dashboard/:userID", h.Dashboard)
	e.GET("/ws/device/:userID", h.Device)
}

// Dashboard subscribes a browser connection to the user's room and makes
// sure their monitor is running.
func (h *Handler) Dashboard(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	transport := newConnTransport(conn)
	unsubscribe := h.bus.Subscribe(userID, transport)

	if err := h.svc.Supervisor.EnsureStarted(c.Request().Context(), userID); err != nil {
		h.log.Error("Failed to start monitor on dashboard connect", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}

	h.log.Info("Dashboard connected", logger.IntField("user_id", int(userID)))
	h.readUntilClose(conn)

	unsubscribe()
	_ = transport.Close()
	h.log.Info("Dashboard disconnected", logger.IntField("user_id", int(userID)))
	return nil
}

// Device subscribes the embedded actuator's channel and tracks its presence
// on the user row so the dashboard can show connection state.
func (h *Handler) Device(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	transport := newConnTransport(conn)
	unsubscribe := h.bus.Subscribe(userID, transport)

	if err := h.userRepo.SetDeviceConnected(ctx, userID, true); err != nil {
		h.log.Warn("Failed to mark device connected", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}
	h.recordDeviceActivity(ctx, userID, model.ActivityDeviceConnect, "device channel connected")
	h.bus.PublishDeviceStatus(userID, true)
	h.log.Info("Device connected", logger.IntField("user_id", int(userID)))

	h.readUntilClose(conn)

	unsubscribe()
	_ = transport.Close()

	// The request context may already be canceled once the socket closes;
	// the presence update still has to land.
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.userRepo.SetDeviceConnected(disconnectCtx, userID, false); err != nil {
		h.log.Warn("Failed to mark device disconnected", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}
	h.recordDeviceActivity(disconnectCtx, userID, model.ActivityDeviceDisconnect, "device channel disconnected")
	h.bus.PublishDeviceStatus(userID, false)
	h.log.Info("Device disconnected", logger.IntField("user_id", int(userID)))
	return nil
}

func (h *Handler) recordDeviceActivity(ctx context.Context, userID uint, activityType model.ActivityType, description string) {
	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		Description:  description,
	}
	if err := h.activityRepo.Create(ctx, activity); err != nil {
		h.log.Warn("Failed to record device activity", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
	}
}

// readUntilClose drains inbound frames until the peer goes away. Inbound
// payloads are ignored; the socket is publish-only from the server side.
func (h *Handler) readUntilClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
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

// event is the envelope written to every subscriber.
type event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

// connTransport adapts one websocket connection to the bus Transport
// interface. Writes are serialized; gorilla connections allow only one
// concurrent writer.
type connTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnTransport(conn *websocket.Conn) *connTransport {
	return &connTransport{conn: conn}
}

func (t *connTransport) Send(eventName string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return t.conn.WriteJSON(event{
		Event: eventName,
		Data:  payload,
		At:    time.Now().UTC(),
	})
}

func (t *connTransport) Close() error {
	return t.conn.Close()
}
