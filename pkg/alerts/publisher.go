// Package alerts forwards recorded threat events to an MQTT broker.
package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
)

// PublisherConfig holds MQTT publisher configuration
type PublisherConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// Publisher publishes threat events as JSON
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *logrus.Logger
}

// Message is the payload published for every threat event
type Message struct {
	Source string             `json:"source"`
	Event  models.ThreatEvent `json:"event"`
}

// NewPublisher connects to the broker
func NewPublisher(config PublisherConfig, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.WithField("broker", config.Broker).Info("Connected to alert broker")
	return newPublisher(client, config.Topic, logger), nil
}

func newPublisher(client mqtt.Client, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
	}
}

// PublishThreat publishes event to the configured topic
func (p *Publisher) PublishThreat(event models.ThreatEvent) error {
	payload, err := json.Marshal(Message{Source: "security-drill", Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal threat event: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish threat event: %w", token.Error())
	}

	p.logger.WithFields(logrus.Fields{
		"topic":  p.topic,
		"threat": event.Type,
	}).Debug("Published threat event")
	return nil
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
