// Package mqtt bridges planning events to an MQTT broker so that other
// plant systems can follow plan changes without a websocket connection.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Client is the subset of paho.Client the publisher needs.
type Client interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	QoS         byte
}

// Publisher publishes each event to <prefix>/<room>/<event>.
type Publisher struct {
	client  Client
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *logrus.Entry
}

// Message is the JSON body published for each event.
type Message struct {
	Room   string    `json:"room"`
	Event  string    `json:"event"`
	Data   any       `json:"data"`
	SentAt time.Time `json:"sentAt"`
}

// Connect dials the broker and returns a publisher using that connection.
func Connect(cfg Config, logger *logrus.Logger) (*Publisher, error) {
	log := logger.WithField("component", "mqtt")

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, token.Error())
	}

	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return NewPublisher(client, cfg.TopicPrefix, cfg.QoS, logger), nil
}

func NewPublisher(client Client, prefix string, qos byte, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client:  client,
		prefix:  strings.Trim(prefix, "/"),
		qos:     qos,
		timeout: 5 * time.Second,
		logger:  logger.WithField("component", "mqtt"),
	}
}

// Topic returns the topic an event is published to.
func (p *Publisher) Topic(room, event string) string {
	if p.prefix == "" {
		return room + "/" + event
	}
	return p.prefix + "/" + room + "/" + event
}

func (p *Publisher) Publish(ctx context.Context, room, name string, payload any) error {
	body, err := json.Marshal(Message{Room: room, Event: name, Data: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	topic := p.Topic(room, name)
	token := p.client.Publish(topic, p.qos, false, body)

	wait := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish %s: timed out after %s", topic, wait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.WithField("topic", topic).Debug("Event bridged to MQTT")
	return nil
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
