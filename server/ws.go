package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pharmintel/core/internal/apperr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// wsMessage is the frame format in both directions. Client frames carry
// type "ask"; the server answers with "token" frames followed by one
// "done" frame, or an "error" frame.
type wsMessage struct {
	Type       string      `json:"type"`
	DocumentID string      `json:"document_id,omitempty"`
	Content    string      `json:"content,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// handleWS answers questions over a WebSocket, streaming tokens as the
// model produces them.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ownerID := identity(c)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "ask" {
			_ = conn.WriteJSON(wsMessage{Type: "error", Content: "unknown message type " + msg.Type})
			continue
		}
		if msg.DocumentID == "" || msg.Content == "" {
			_ = conn.WriteJSON(wsMessage{Type: "error", Content: "document_id and content are required"})
			continue
		}

		answer, err := s.rag.AskStream(c.Request.Context(), msg.DocumentID, ownerID, msg.Content, func(chunk string) error {
			return conn.WriteJSON(wsMessage{Type: "token", Content: chunk})
		})
		if err != nil {
			_ = conn.WriteJSON(wsMessage{
				Type:    "error",
				Content: apperr.Message(err),
				Data:    gin.H{"code": apperr.KindOf(err).String()},
			})
			continue
		}

		if err := conn.WriteJSON(wsMessage{Type: "done", Data: answer.Sources}); err != nil {
			return
		}
	}
}
