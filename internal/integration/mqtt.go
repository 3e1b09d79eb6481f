package integration

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

// MQTTPublisher publishes events to an MQTT broker as JSON, one topic
// per event type: {prefix}device/{devEUI}/event/{type}.
type MQTTPublisher struct {
	conn        mqtt.Client
	topicPrefix string
	qos         uint8
}

// NewMQTTPublisher creates a new MQTTPublisher.
func NewMQTTPublisher(c config.Config) (*MQTTPublisher, error) {
	p := MQTTPublisher{
		topicPrefix: c.Integration.MQTT.TopicPrefix,
		qos:         c.Integration.MQTT.QOS,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.Integration.MQTT.Server)
	opts.SetUsername(c.Integration.MQTT.Username)
	opts.SetPassword(c.Integration.MQTT.Password)

	log.WithFields(log.Fields{
		"server": c.Integration.MQTT.Server,
	}).Info("integration/mqtt: connecting to mqtt broker")

	p.conn = mqtt.NewClient(opts)
	if token := p.conn.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connect to mqtt broker error")
	}

	return &p, nil
}

// Publish implements the Publisher interface.
func (p *MQTTPublisher) Publish(event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event error")
	}

	topic := fmt.Sprintf("%sdevice/%s/event/%s", p.topicPrefix, event.DevEUI, event.Type)
	log.WithFields(log.Fields{
		"topic": topic,
		"type":  event.Type,
	}).Debug("integration/mqtt: publishing event")

	if token := p.conn.Publish(topic, byte(p.qos), false, b); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "publish event error")
	}
	return nil
}

// Close implements the Publisher interface.
func (p *MQTTPublisher) Close() error {
	log.Info("integration/mqtt: closing publisher")
	p.conn.Disconnect(250)
	return nil
}
