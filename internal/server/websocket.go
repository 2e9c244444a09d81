package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cruciblehq/crucible/internal/history"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin UI; auth is the deployment's concern
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type   string `json:"type"`
	Source string `json:"source"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type   string          `json:"type"`
	Reason string          `json:"reason,omitempty"`
	Record *history.Record `json:"record,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Verify session exists
	meta, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	active, err := s.sessions.GetOrCreate(r.Context(), meta, s.store)
	if err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Reason: fmt.Sprintf("initializing session: %v", err)})
		return
	}

	// Read loop: one submission handled to completion at a time.
	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Printf("websocket read error: %v", err)
			return
		}

		switch msg.Type {
		case "run":
			if msg.Source == "" {
				wsWriteJSON(conn, wsOutgoing{Type: "error", Reason: "source is required"})
				continue
			}

			verdict, rec := active.Submit(s.policy, s.engine, msg.Source)
			if !verdict.Allowed {
				wsWriteJSON(conn, wsOutgoing{Type: "rejected", Reason: verdict.Reason})
				continue
			}

			if meta.Title == "" {
				meta.Title = generateTitle(msg.Source)
				s.store.UpdateSession(context.Background(), meta)
			}
			if err := s.store.AppendRecord(context.Background(), meta.ID, *rec); err != nil {
				log.Printf("failed to save record for session %s: %v", meta.ID, err)
			}

			wsWriteJSON(conn, wsOutgoing{Type: "result", Record: rec})

		case "reset":
			active.Reset()
			if err := s.store.ClearRecords(context.Background(), meta.ID); err != nil {
				log.Printf("failed to clear records for session %s: %v", meta.ID, err)
			}
			wsWriteJSON(conn, wsOutgoing{Type: "reset"})

		default:
			wsWriteJSON(conn, wsOutgoing{Type: "error", Reason: "invalid message"})
		}
	}
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
