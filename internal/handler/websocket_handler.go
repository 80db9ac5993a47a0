package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go-pos-terminal/internal/service"
	"go-pos-terminal/internal/terminal"
	"go-pos-terminal/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// lockedConn serialises writes; the hub and the read loop both write.
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *lockedConn) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return l.conn.WriteMessage(messageType, data)
}

func (l *lockedConn) Close() error {
	return l.conn.Close()
}

func (l *lockedConn) writeJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return l.WriteMessage(websocket.TextMessage, payload)
}

type SocketHandler struct {
	terminalService service.TerminalService
	hub             *ws.Hub
	log             *zap.Logger
}

func NewSocketHandler(terminalService service.TerminalService, hub *ws.Hub, log *zap.Logger) *SocketHandler {
	return &SocketHandler{terminalService: terminalService, hub: hub, log: log}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *SocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Serve runs one terminal connection: every JSON message is an event. The
// reply goes back on this connection and to the session's other connections.
// GET /ws/terminal?token=...
func (h *SocketHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		principal, ok := c.Locals("principal").(*service.Principal)
		if !ok {
			c.Close()
			return
		}
		conn := &lockedConn{conn: c}
		sub := ws.Subscription{Session: principal.TokenVersion, Conn: conn}
		if !h.hub.Join(sub) {
			c.Close()
			return
		}
		defer h.hub.Leave(sub)

		ctx := context.Background()
		if err := conn.writeJSON(h.terminalService.Open(ctx, principal)); err != nil {
			return
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			var ev terminal.Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				conn.writeJSON(fiber.Map{"error": "Invalid JSON"})
				continue
			}
			reply, err := h.terminalService.DispatchFrom(ctx, principal, ev, conn)
			if err != nil {
				h.log.Debug("rejected terminal event", zap.String("cashier", principal.Username), zap.Error(err))
				conn.writeJSON(fiber.Map{"error": err.Error()})
				continue
			}
			if err := conn.writeJSON(reply); err != nil {
				break
			}
		}
	})
}
