package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/securecloud/drive-sdk-go/pkg/drive"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// progressHub fans upload state snapshots out to every connected WebSocket
// client. A new client first receives the latest snapshot.
type progressHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    []byte
}

func newProgressHub() *progressHub {
	return &progressHub{clients: make(map[*websocket.Conn]struct{})}
}

// publish sends s to all clients. Clients that fail to receive it are dropped.
func (h *progressHub) publish(s drive.UploadState) {
	data, err := json.Marshal(s)
	if err != nil {
		zap.L().Error("failed to encode upload state", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for conn := range h.clients {
		if err := h.write(conn, data); err != nil {
			zap.L().Debug("dropping progress client", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *progressHub) write(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Messages sent by the client are ignored.
func (h *progressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.last != nil {
		if err := h.write(conn, h.last); err != nil {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Debug("progress client read failed", zap.Error(err))
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Close disconnects every client.
func (h *progressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func (h *progressHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
