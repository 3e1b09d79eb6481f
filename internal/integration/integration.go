// Package integration publishes device events (join, uplink, downlink,
// status) to an external consumer, either the application log or an
// MQTT broker.
package integration

import (
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
	"github.com/brocaar/lorawan"
)

// Event types.
const (
	EventJoin   = "join"
	EventUp     = "up"
	EventDown   = "down"
	EventStatus = "status"
)

// Event defines a device event.
type Event struct {
	ID     uuid.UUID     `json:"id"`
	DevEUI lorawan.EUI64 `json:"devEUI"`
	Type   string        `json:"type"`
	Time   time.Time     `json:"time"`

	DevAddr   *lorawan.DevAddr `json:"devAddr,omitempty"`
	Port      uint8            `json:"port,omitempty"`
	Data      []byte           `json:"data,omitempty"`
	Confirmed bool             `json:"confirmed,omitempty"`
	Ack       bool             `json:"ack,omitempty"`
	Counter   uint32           `json:"counter,omitempty"`
	DataRate  int              `json:"dr"`
	Frequency uint32           `json:"frequency,omitempty"`
	TxPower   int              `json:"txPower,omitempty"`
	RSSI      int16            `json:"rssi,omitempty"`
	SNR       int8             `json:"snr,omitempty"`
	RxSlot    string           `json:"rxSlot,omitempty"`
	Class     string           `json:"class,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Publisher defines the event publisher interface.
type Publisher interface {
	// Publish publishes the given event.
	Publish(event Event) error

	// Close closes the publisher.
	Close() error
}

// Setup creates the configured publisher. Without an MQTT server
// configured, events are only logged.
func Setup(c config.Config) (Publisher, error) {
	if c.Integration.MQTT.Server == "" {
		return &LogPublisher{}, nil
	}
	return NewMQTTPublisher(c)
}

// NewEvent creates a new event of the given type, with the ID and
// timestamp set.
func NewEvent(devEUI lorawan.EUI64, typ string) Event {
	id, err := uuid.NewV4()
	if err != nil {
		log.WithError(err).Error("integration: new uuid error")
	}
	return Event{
		ID:     id,
		DevEUI: devEUI,
		Type:   typ,
		Time:   time.Now(),
	}
}

// LogPublisher publishes events to the application log.
type LogPublisher struct{}

// Publish implements the Publisher interface.
func (p *LogPublisher) Publish(event Event) error {
	log.WithFields(log.Fields{
		"type":    event.Type,
		"dev_eui": event.DevEUI,
		"port":    event.Port,
		"counter": event.Counter,
	}).Info("integration: event published")
	return nil
}

// Close implements the Publisher interface.
func (p *LogPublisher) Close() error {
	return nil
}
