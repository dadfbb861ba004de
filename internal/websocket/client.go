package chatws

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
)

type relay interface {
	CanAccess(ctx context.Context, actorID int64, sessionID int64) error
	SendMessage(ctx context.Context, actorID int64, sessionID int64, content string) (*models.Message, error)
}

type inboundFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

type errorFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ReadPump consumes frames from the connection until it drops. Clients join
// a session's topics with a "join" frame and relay messages with "message"
// frames; everything else is answered with an error frame.
func (c *Client) ReadPump(service relay) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	actorID, err := strconv.ParseInt(c.userID, 10, 64)
	if err != nil {
		writeError(c, "invalid user")
		return
	}

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			writeError(c, "invalid message payload")
			continue
		}

		sessionID, err := strconv.ParseInt(frame.SessionID, 10, 64)
		if err != nil || sessionID <= 0 {
			writeError(c, "invalid session id")
			continue
		}

		switch frame.Type {
		case "join":
			if err := service.CanAccess(context.Background(), actorID, sessionID); err != nil {
				writeError(c, "cannot join session")
				continue
			}
			c.hub.Subscribe(c, services.SessionTopic(sessionID))
			c.hub.Subscribe(c, services.SessionEndTopic(sessionID))
		case "message":
			if _, err := service.SendMessage(context.Background(), actorID, sessionID, frame.Content); err != nil {
				writeError(c, sendErrorText(err))
			}
		default:
			writeError(c, "unsupported message type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func sendErrorText(err error) string {
	switch err {
	case services.ErrSessionNotActive:
		return "session is not active"
	case services.ErrInvalidInput:
		return "message content must not be empty"
	case services.ErrForbidden:
		return "not a session participant"
	default:
		return "failed to send message"
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(errorFrame{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	client.hub.Send(client, payload)
}
