package handlers

import (
	"log/slog"
	"net/http"

	"github.com/campusfest/techfest-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeEventFeed subscribes the connection to an event's room, where
// registration count updates are pushed as students register and cancel.
func (h *WebSocketHandler) ServeEventFeed(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Error("websocket upgrade failed",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.EventRoom(eventID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
