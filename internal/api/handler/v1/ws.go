package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/payoutpilot/mentorchat/internal/chat"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced before the upgrade.
	},
}

type eventHandler func(ctx context.Context, c *wsClient, data json.RawMessage)

// WSHandler upgrades chat connections and dispatches inbound frames to the
// gateway through an explicit event->handler table.
type WSHandler struct {
	gateway  *chat.Gateway
	handlers map[string]eventHandler
}

func NewWSHandler(gateway *chat.Gateway) *WSHandler {
	h := &WSHandler{
		gateway: gateway,
	}
	h.handlers = map[string]eventHandler{
		chat.EventJoin:  h.onJoin,
		chat.EventLeave: h.onLeave,
		chat.EventSend:  h.onSend,
	}

	return h
}

// HandleChatSocket godoc
// @Summary      Establish the chat WebSocket connection
// @Description  Carries join/leave/send events in; history/message/error events out.
// @Tags         chat
// @Success      101 {string} string "Switching Protocols"
// @Failure      401 {object} response.Err
// @Router       /chat/ws [get]
// @Security     BearerAuth
func (h *WSHandler) HandleChatSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	go client.writePump()
	go client.readPump(h)
}

// inboundEnvelope is the wire frame sent by clients.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (h *WSHandler) dispatch(ctx context.Context, c *wsClient, frame []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.Send(chat.ErrorPayload(chat.CodeBadEvent, "malformed event frame"))
		return
	}

	handler, ok := h.handlers[env.Event]
	if !ok {
		c.Send(chat.ErrorPayload(chat.CodeBadEvent, "unknown event: "+env.Event))
		return
	}

	handler(ctx, c, env.Data)
}

func (h *WSHandler) onJoin(ctx context.Context, c *wsClient, data json.RawMessage) {
	var ev chat.JoinEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
		c.Send(chat.ErrorPayload(chat.CodeBadEvent, "join requires a room_id"))
		return
	}

	h.gateway.HandleJoin(ctx, c, ev)
}

func (h *WSHandler) onLeave(_ context.Context, c *wsClient, data json.RawMessage) {
	var ev chat.LeaveEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
		c.Send(chat.ErrorPayload(chat.CodeBadEvent, "leave requires a room_id"))
		return
	}

	h.gateway.HandleLeave(c, ev)
}

func (h *WSHandler) onSend(ctx context.Context, c *wsClient, data json.RawMessage) {
	var ev chat.SendEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
		c.Send(chat.ErrorPayload(chat.CodeBadEvent, "send requires a room_id"))
		return
	}

	h.gateway.HandleSend(ctx, c, ev)
}

// wsClient is one live connection; it implements chat.Session.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) ID() string {
	return c.id
}

// Send queues the payload without blocking. A client whose buffer is full
// is too slow to keep up and gets its connection closed; the read pump then
// runs the normal disconnect path.
func (c *wsClient) Send(payload []byte) {
	select {
	case c.send <- payload:
	default:
		c.conn.Close()
	}
}

// readPump processes inbound frames in order, so events from one session
// are handled sequentially while sessions interleave freely.
func (c *wsClient) readPump(h *WSHandler) {
	defer func() {
		c.conn.Close()
		close(c.send)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read failed", zap.String("session_id", c.id), zap.Error(err))
			}
			// Drop from every room before the send channel closes, so no
			// broadcast can race a send into a closed channel.
			h.gateway.HandleDisconnect(c, err.Error())
			return
		}

		h.dispatch(context.Background(), c, frame)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
