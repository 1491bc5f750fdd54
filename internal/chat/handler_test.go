package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

const wsTestSecret = "ws-test-secret"

func wsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := NewHandler(NewHub(logger.NewLogger()), wsTestSecret, logger.NewLogger())
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
}

func wsToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.IssueToken(wsTestSecret, &models.User{
		ID:       userID,
		Role:     models.RoleCustomer,
		Language: "en",
	}, time.Hour)
	assert.NoError(t, err)
	return token
}

func expectPolicyViolation(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if assert.True(t, ok, "expected a close frame, got %v", err) {
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	}
}

func TestServeWSClosesOnBadToken(t *testing.T) {
	srv := wsTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token=garbage&booking_id=b1"), nil)
	assert.NoError(t, err, "upgrade should succeed even with a bad token")
	defer conn.Close()

	expectPolicyViolation(t, conn)
}

func TestServeWSRequiresBookingID(t *testing.T) {
	srv := wsTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+wsToken(t, "cust-1")), nil)
	assert.NoError(t, err)
	defer conn.Close()

	expectPolicyViolation(t, conn)
}

func TestServeWSRelaysToCounterpart(t *testing.T) {
	srv := wsTestServer(t)

	customer, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+wsToken(t, "cust-1")+"&booking_id=b1"), nil)
	assert.NoError(t, err)
	defer customer.Close()

	tech, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "token="+wsToken(t, "tech-1")+"&booking_id=b1"), nil)
	assert.NoError(t, err)
	defer tech.Close()

	// Spoofed sender, the relay must overwrite it from the token.
	inbound := models.ChatInbound{
		Type: "message",
		Data: models.ChatPayload{From: "someone-else", Text: "on my way", Timestamp: 1756500000000},
	}
	assert.NoError(t, customer.WriteJSON(inbound))

	_ = tech.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := tech.ReadMessage()
	assert.NoError(t, err)

	var outbound models.ChatOutbound
	assert.NoError(t, json.Unmarshal(raw, &outbound))
	assert.Equal(t, "message", outbound.Type)
	assert.Equal(t, "cust-1", outbound.Message.From)
	assert.Equal(t, "on my way", outbound.Message.Text)
}
