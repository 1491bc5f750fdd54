package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	Hub       *Hub
	JWTSecret string
	Logger    *logger.Logger
}

func NewHandler(hub *Hub, jwtSecret string, log *logger.Logger) *Handler {
	return &Handler{Hub: hub, JWTSecret: jwtSecret, Logger: log}
}

// ServeWS upgrades the connection and joins the caller to a booking
// room. Auth failures still upgrade, then close with policy violation
// so browser clients see a clean close frame instead of a failed
// handshake.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("CHAT", fmt.Sprintf("upgrade: %v", err))
		return
	}

	claims, err := auth.VerifyToken(h.JWTSecret, r.URL.Query().Get("token"))
	if err != nil {
		h.Logger.LogSecurity("WS_AUTH_FAILED", fmt.Sprintf("from %s: %v", r.RemoteAddr, err))
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
		conn.Close()
		return
	}

	bookingID := r.URL.Query().Get("booking_id")
	if bookingID == "" {
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "booking_id required")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
		conn.Close()
		return
	}

	client := h.Hub.Register(claims.Subject, bookingID)
	h.Logger.Info("CHAT", fmt.Sprintf("user %s joined room %s", claims.Subject, bookingID))

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

func (h *Handler) readPump(conn *websocket.Conn, client *Client) {
	defer func() {
		h.Hub.Unregister(client)
		conn.Close()
		h.Logger.Info("CHAT", fmt.Sprintf("user %s left room %s", client.UserID, client.BookingID))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("CHAT", fmt.Sprintf("read from %s: %v", client.UserID, err))
			}
			return
		}

		var inbound models.ChatInbound
		if err := json.Unmarshal(raw, &inbound); err != nil || inbound.Type != "message" {
			continue
		}

		// The sender field is authoritative from the token, not the
		// client payload.
		outbound := models.ChatOutbound{
			Type: "message",
			Message: models.ChatPayload{
				From:      client.UserID,
				Text:      inbound.Data.Text,
				Timestamp: inbound.Data.Timestamp,
			},
		}
		encoded, err := json.Marshal(outbound)
		if err != nil {
			continue
		}
		h.Hub.Relay(client, encoded)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
