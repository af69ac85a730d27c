package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"work-allocation/internal/events"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type frame struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHubDeliversToRoomMembers(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Command{Action: ActionJoinRoom, Room: events.DefaultRoom}))
	require.Eventually(t, func() bool { return hub.RoomSize(events.DefaultRoom) == 1 }, time.Second, 10*time.Millisecond)

	payload := map[string]string{"planId": "p1", "assignmentId": "a1"}
	require.NoError(t, hub.Publish(context.Background(), events.DefaultRoom, events.WorkerUnassigned, payload))

	f := readFrame(t, conn)
	assert.Equal(t, events.WorkerUnassigned, f.Event)
	assert.Equal(t, events.DefaultRoom, f.Room)
	assert.JSONEq(t, `{"planId":"p1","assignmentId":"a1"}`, string(f.Data))
}

func TestHubIsolatesRooms(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	main := dial(t, srv)
	other := dial(t, srv)
	require.NoError(t, main.WriteJSON(Command{Action: ActionJoinRoom, Room: "main"}))
	require.NoError(t, other.WriteJSON(Command{Action: ActionJoinRoom, Room: "site-b"}))
	require.Eventually(t, func() bool {
		return hub.RoomSize("main") == 1 && hub.RoomSize("site-b") == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "site-b", events.PlanDeleted, map[string]string{"planId": "p1"}))
	require.NoError(t, hub.Publish(context.Background(), "main", events.PlanCreated, map[string]string{"id": "p2"}))

	assert.Equal(t, events.PlanCreated, readFrame(t, main).Event)
	assert.Equal(t, events.PlanDeleted, readFrame(t, other).Event)
}

func TestHubLeaveRoomAndDisconnect(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Command{Action: ActionJoinRoom, Room: "main"}))
	require.Eventually(t, func() bool { return hub.RoomSize("main") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Action: ActionLeaveRoom, Room: "main"}))
	require.Eventually(t, func() bool { return hub.RoomSize("main") == 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPublishDropsFramesForSlowClients(t *testing.T) {
	hub := NewHub(testLogger())
	c := &client{hub: hub, send: make(chan []byte, 1), rooms: make(map[string]struct{})}
	require.True(t, hub.register(c))
	hub.join(c, "main")

	require.NoError(t, hub.Publish(context.Background(), "main", events.PlanUpdated, nil))
	require.NoError(t, hub.Publish(context.Background(), "main", events.PlanDeleted, nil))

	assert.Len(t, c.send, 1)
	var got events.Event
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, events.PlanUpdated, got.Name)
}

func TestPublishAfterClose(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Close()
	err := hub.Publish(context.Background(), "main", events.PlanUpdated, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}
