package daemon

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"cine/internal/api"
	"cine/internal/engine"
	"cine/internal/logging"
	"cine/internal/services"
)

// wsWriteWait bounds how long a slow client can stall an event write.
const wsWriteWait = 10 * time.Second

// streamCommandType routes an inbound message to the playback command
// dispatcher instead of the input handlers.
const streamCommandType = "command"

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsClient serializes writes to one event stream connection. Engine callbacks
// and the opening state event share the connection, so every write goes
// through the mutex.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(event api.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// wsMessage is one inbound client message. Type selects the route: key,
// wheel, and touch carry gesture fields; command carries a playback command.
type wsMessage struct {
	Type string `json:"type"`

	Key      string  `json:"key,omitempty"`
	Delta    float64 `json:"delta,omitempty"`
	Phase    string  `json:"phase,omitempty"`
	Position float64 `json:"position,omitempty"`

	Name      string  `json:"name,omitempty"`
	Frame     int     `json:"frame,omitempty"`
	Animate   bool    `json:"animate,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

func (s *apiServer) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	session, err := s.daemon.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	eng := session.Engine()
	if eng == nil {
		s.writeError(w, http.StatusConflict, "session has no engine")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		s.log().Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	client := &wsClient{conn: conn}
	logger := s.log().With(logging.String("session_id", session.ID))

	var closeOnce sync.Once
	disconnect := func() {
		closeOnce.Do(func() { _ = conn.Close() })
	}
	defer disconnect()

	// Closing the session must drop its streams even while the read loop is
	// blocked, so a watcher closes the connection out from under it.
	handlerDone := make(chan struct{})
	defer close(handlerDone)
	go func() {
		select {
		case <-session.Done():
			disconnect()
		case <-handlerDone:
		}
	}()

	if err := client.send(api.StateEvent(api.FromSnapshot(eng.Snapshot()))); err != nil {
		return
	}

	unsubscribe := eng.Subscribe(func(event engine.Event) {
		if err := client.send(api.FromEvent(event)); err != nil {
			disconnect()
		}
	})
	defer unsubscribe()

	logger.Debug("event stream opened")
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logger.Debug("event stream closed")
			return
		}
		s.dispatchStreamMessage(eng, payload, logger)
	}
}

func (s *apiServer) dispatchStreamMessage(eng *engine.Engine, payload []byte, logger *slog.Logger) {
	var msg wsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Warn("malformed event stream message", logging.Error(err))
		return
	}
	switch msg.Type {
	case api.InputKey, api.InputWheel, api.InputTouch:
		input := api.InputEvent{
			Kind:     msg.Type,
			Key:      msg.Key,
			Delta:    msg.Delta,
			Phase:    msg.Phase,
			Position: msg.Position,
		}
		if err := api.ApplyInput(eng, input); err != nil {
			logger.Warn("input event rejected", logging.Error(err))
		}
	case streamCommandType:
		cmd := api.PlaybackCommand{
			Name:      msg.Name,
			Frame:     msg.Frame,
			Animate:   msg.Animate,
			Rate:      msg.Rate,
			Mode:      msg.Mode,
			Direction: msg.Direction,
		}
		if _, err := api.ApplyCommand(eng, cmd); err != nil {
			logger.Warn("playback command rejected", logging.Error(err))
		}
	default:
		logger.Warn("unknown event stream message type", logging.String("type", msg.Type))
	}
}
