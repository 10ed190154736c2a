package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// answerTimeout bounds how long an intake question waits for the user.
const answerTimeout = 5 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat page is served from anywhere during development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsFrame is every message the server sends over the socket. Type is
// "reply", "question" or "error"; Data carries the reply payload.
type wsFrame struct {
	Type string      `json:"type"`
	Text string      `json:"text,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// handleWebSocket runs a chat session. Inbound frames are plain text
// messages; each produces a "reply" frame. When a turn needs profile
// intake, the server sends "question" frames and consumes the following
// inbound frames as answers.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("[WS] session started user=%s", userID)

	// Questions asked mid-turn read their answers from the same socket.
	// The read loop is sequential, so this cannot race with it.
	ask := func(ctx context.Context, question string) (string, error) {
		if err := conn.WriteJSON(wsFrame{Type: "question", Text: question}); err != nil {
			return "", fmt.Errorf("send question: %w", err)
		}
		deadline := time.Now().Add(answerTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		conn.SetReadDeadline(deadline)
		defer conn.SetReadDeadline(time.Time{})

		_, answer, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return string(answer), nil
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error user=%s: %v", userID, err)
			}
			return
		}

		reply, err := s.orchestrator.Handle(r.Context(), userID, string(raw), ask)
		if err != nil {
			log.Printf("[WS] handle failed user=%s: %v", userID, err)
			if werr := conn.WriteJSON(wsFrame{Type: "error", Text: "Something went wrong, try again."}); werr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(wsFrame{Type: "reply", Text: reply.Message, Data: reply}); err != nil {
			log.Printf("[WS] write failed user=%s: %v", userID, err)
			return
		}
	}
}
