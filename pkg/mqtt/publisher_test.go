package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	connected    bool
	disconnected bool
	err          error
	sent         []published
}

func (m *mockClient) IsConnected() bool       { return m.connected }
func (m *mockClient) Disconnect(quiesce uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.sent = append(m.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &mockToken{err: m.err}
}

type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool                       { return true }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *mockToken) Error() error                     { return t.err }
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPublishUsesRoomAndEventTopic(t *testing.T) {
	client := &mockClient{connected: true}
	pub := NewPublisher(client, "/planning/", 1, quietLogger())

	err := pub.Publish(context.Background(), "main", "plan-deleted", map[string]string{"planId": "p1"})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "planning/main/plan-deleted", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var msg struct {
		Room  string            `json:"room"`
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &msg))
	assert.Equal(t, "main", msg.Room)
	assert.Equal(t, "plan-deleted", msg.Event)
	assert.Equal(t, "p1", msg.Data["planId"])
}

func TestPublishReportsBrokerError(t *testing.T) {
	client := &mockClient{connected: true, err: errors.New("not authorized")}
	pub := NewPublisher(client, "", 0, quietLogger())

	err := pub.Publish(context.Background(), "main", "plan-created", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main/plan-created")
}

func TestCloseDisconnectsClient(t *testing.T) {
	client := &mockClient{connected: true}
	NewPublisher(client, "planning", 0, quietLogger()).Close()
	assert.True(t, client.disconnected)
}
