package service

import (
	"coinwatch/internal/dto"
	"coinwatch/pkg/logger"
	"sync"
	"time"
)

const (
	EventMarketUpdate    = "market_update"
	EventActuatorCommand = "actuator_command"
	EventDeviceStatus    = "device_status"
)

// Transport is one delivery channel (dashboard socket, device channel)
// subscribed to a user's room.
type Transport interface {
	Send(event string, payload interface{}) error
	Close() error
}

// SubscriberBus fans out signal batches and actuator commands to every
// transport currently subscribed for a user. Delivery is best-effort:
// publishing to a user with no transports is a no-op and nothing is queued.
type SubscriberBus struct {
	log    *logger.Logger
	mu     sync.RWMutex
	nextID uint64
	rooms  map[uint]map[uint64]Transport
}

func NewSubscriberBus(log *logger.Logger) *SubscriberBus {
	return &SubscriberBus{
		log:   log,
		rooms: make(map[uint]map[uint64]Transport),
	}
}

// Subscribe adds a transport to the user's room and returns the function
// that removes it again. The transport is not closed on unsubscribe; its
// owner does that.
func (b *SubscriberBus) Subscribe(userID uint, t Transport) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	room, ok := b.rooms[userID]
	if !ok {
		room = make(map[uint64]Transport)
		b.rooms[userID] = room
	}
	room[id] = t

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if room, ok := b.rooms[userID]; ok {
			delete(room, id)
			if len(room) == 0 {
				delete(b.rooms, userID)
			}
		}
	}
}

// SubscriberCount reports how many transports are in a user's room.
func (b *SubscriberBus) SubscriberCount(userID uint) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[userID])
}

// Publish delivers a signal batch to the user's room.
func (b *SubscriberBus) Publish(userID uint, batch dto.SignalBatch) {
	b.send(userID, EventMarketUpdate, batch)
}

// PublishActuatorCommand delivers a device command to the user's room.
func (b *SubscriberBus) PublishActuatorCommand(userID uint, cmd dto.ActuatorCommand) {
	b.send(userID, EventActuatorCommand, cmd)
}

// PublishDeviceStatus tells the user's room that the device channel came
// up or went away.
func (b *SubscriberBus) PublishDeviceStatus(userID uint, connected bool) {
	b.send(userID, EventDeviceStatus, map[string]interface{}{
		"user_id":   userID,
		"connected": connected,
		"at":        time.Now().UTC(),
	})
}

func (b *SubscriberBus) send(userID uint, event string, payload interface{}) {
	b.mu.RLock()
	transports := make([]Transport, 0, len(b.rooms[userID]))
	ids := make([]uint64, 0, len(b.rooms[userID]))
	for id, t := range b.rooms[userID] {
		transports = append(transports, t)
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	if len(transports) == 0 {
		return
	}

	for i, t := range transports {
		if err := t.Send(event, payload); err != nil {
			b.log.Warn("Dropping subscriber after failed send",
				logger.IntField("user_id", int(userID)),
				logger.StringField("event", event),
				logger.ErrorField(err))
			b.drop(userID, ids[i])
			_ = t.Close()
		}
	}
}

func (b *SubscriberBus) drop(userID uint, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room, ok := b.rooms[userID]; ok {
		delete(room, id)
		if len(room) == 0 {
			delete(b.rooms, userID)
		}
	}
}
