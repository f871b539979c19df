package websocket

import (
	"context"
	"encoding/json"
	"time"

	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 16 * 1024
)

// ChatRequest is one inbound question over the socket.
type ChatRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode,omitempty"`
}

// ChatEvent is an outbound frame: a status update, an answer, or an error.
type ChatEvent struct {
	Type    string             `json:"type"` // "status", "answer", "error"
	Message string             `json:"message,omitempty"`
	Result  *dto.QueryResponse `json:"result,omitempty"`
}

// ChatHandler serves the interactive question/answer loop over a websocket
// connection. Each connection is independent; questions are answered in
// the order received.
type ChatHandler struct {
	queryService service.IQueryService
	log          logger.ILogger
}

func NewChatHandler(queryService service.IQueryService, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		queryService: queryService,
		log:          log,
	}
}

// Serve runs the read loop until the peer disconnects.
func (h *ChatHandler) Serve(c *websocket.Conn) {
	defer c.Close()

	c.SetReadLimit(maxMessageSize)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws-chat", "Unexpected close", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(pongWait))

		var req ChatRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Question == "" {
			h.writeEvent(c, ChatEvent{Type: "error", Message: "expected {\"question\": \"...\"}"})
			continue
		}

		h.writeEvent(c, ChatEvent{Type: "status", Message: "thinking"})

		res, err := h.queryService.Query(context.Background(), dto.QueryRequest{
			Question: req.Question,
			Mode:     req.Mode,
		})
		if err != nil {
			h.log.Error("ws-chat", "Query failed", map[string]interface{}{
				"question": req.Question,
				"error":    err.Error(),
			})
			h.writeEvent(c, ChatEvent{Type: "error", Message: err.Error()})
			continue
		}

		h.writeEvent(c, ChatEvent{Type: "answer", Result: res})
	}
}

func (h *ChatHandler) writeEvent(c *websocket.Conn, event ChatEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
		h.log.Warn("ws-chat", "Write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
