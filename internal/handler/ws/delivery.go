package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/opsboard/dashboard-stream-service/internal/service"
)

type WSHandler struct {
	logger   *slog.Logger
	streamer service.Streamer
	auther   service.Auther
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, streamer service.Streamer, auther service.Auther) *WSHandler {
	return &WSHandler{
		logger:   logger,
		streamer: streamer,
		auther:   auther,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auther.Resolve(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	conn, err := h.streamer.Connect(r.Context(), identity)
	if err != nil {
		h.logger.Error("ws connect failed", "error", err)
		return
	}
	defer h.streamer.Disconnect(conn.GetID())

	h.logger.Info("ws opened", "subject", identity.Subject, "conn_id", conn.GetID())

	// Reader: client messages feed the stream service; a read error means
	// the peer is gone and the whole session unwinds.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			h.streamer.HandleInbound(r.Context(), conn, data)
		}
	}()

	// Writer pump. The mailbox channel is captured once: after a close the
	// receive reports !ok and the loop exits.
	recvCh := conn.Recv()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-readDone:
			return
		case env, ok := <-recvCh:
			if !ok {
				return
			}

			if err := ws.WriteJSON(env); err != nil {
				h.logger.Warn("ws send failed", "conn_id", conn.GetID(), "error", err)
				return
			}
		}
	}
}
