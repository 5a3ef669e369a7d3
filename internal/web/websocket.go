// internal/web/websocket.go
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"unifimon/internal/checkapi"
	"unifimon/internal/database"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message types sent to websocket clients.
const (
	MessageStatus      = "status"
	MessageStateChange = "state_change"
)

type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatusEvent is the payload of status and state change messages.
type StatusEvent struct {
	HostID      string    `json:"host_id"`
	ServiceID   string    `json:"service_id"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	ExitCode    int       `json:"exit_code"`
	Output      string    `json:"output"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// WSClient is one websocket subscriber. A non-empty host limits the feed
// to that host's services.
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	host   string
}

// handleWebSocket upgrades GET /ws. ?host= subscribes to a single host.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, sendBuffer),
		server: s,
		host:   c.Query("host"),
	}
	s.addClient(client)

	go client.writeLoop()
	go client.readLoop()
}

func (s *Server) addClient(client *WSClient) {
	s.wsMu.Lock()
	s.wsClients[client] = true
	s.wsMu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordWebSocketConnection(1)
	}
}

func (s *Server) removeClient(client *WSClient) {
	s.wsMu.Lock()
	_, ok := s.wsClients[client]
	if ok {
		delete(s.wsClients, client)
		close(client.send)
	}
	s.wsMu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.RecordWebSocketConnection(-1)
	}
}

func (s *Server) closeClients() {
	s.wsMu.Lock()
	clients := make([]*WSClient, 0, len(s.wsClients))
	for client := range s.wsClients {
		clients = append(clients, client)
	}
	s.wsMu.Unlock()

	for _, client := range clients {
		s.removeClient(client)
	}
}

func (c *WSClient) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case msg, open := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			err = c.conn.WriteJSON(msg)
		case <-ping.C:
			err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			c.server.removeClient(c)
			return
		}
	}
}

// readLoop only keeps the read deadline moving; clients send nothing
// the server acts on.
func (c *WSClient) readLoop() {
	defer c.server.removeClient(c)

	c.conn.SetReadLimit(512)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	extend("")
	c.conn.SetPongHandler(extend)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *WSClient) wants(msg WSMessage) bool {
	if c.host == "" {
		return true
	}
	ev, ok := msg.Data.(StatusEvent)
	return !ok || ev.HostID == c.host
}

// broadcast queues msg for every interested client. Clients whose buffer
// is full are dropped.
func (s *Server) broadcast(msg WSMessage) {
	var slow []*WSClient
	s.wsMu.Lock()
	for client := range s.wsClients {
		if !client.wants(msg) {
			continue
		}
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	s.wsMu.Unlock()

	for _, client := range slow {
		logrus.Debug("Dropping slow websocket client")
		s.removeClient(client)
	}
}

func (s *Server) publishStatus(status database.Status, changed bool) {
	ev := StatusEvent{
		HostID:      status.HostID,
		ServiceID:   status.ServiceID,
		Description: status.Description,
		State:       checkapi.State(status.ExitCode).Label(),
		ExitCode:    status.ExitCode,
		Output:      status.Output,
		Timestamp:   status.Timestamp,
	}
	s.broadcast(WSMessage{Type: MessageStatus, Data: ev})
	if changed {
		s.broadcast(WSMessage{Type: MessageStateChange, Data: ev})
	}
}
