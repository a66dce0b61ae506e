package notifier

import (
	"net/http"
	"time"

	"github.com/bassista/go_graphview/internal/logger"
	"github.com/gorilla/websocket"
)

// SocketOptions tunes the websocket adapter.
type SocketOptions struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	// ReadLimit caps inbound frames; viewers never send anything meaningful.
	ReadLimit int64
}

func (o *SocketOptions) defaults() {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The service is open to any origin, like its HTTP API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades the request and pumps hub events to the client until either
// side goes away. It blocks for the lifetime of the connection.
func Serve(h *Hub, w http.ResponseWriter, r *http.Request, opts SocketOptions) error {
	opts.defaults()
	log := logger.WithComponent("notifier")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return err
	}
	defer conn.Close()

	sub, err := h.Attach()
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(opts.WriteTimeout))
		return err
	}
	defer h.Detach(sub)
	log.Infof("viewer connected from %s", r.RemoteAddr)

	go readPump(h, sub, conn, opts)
	err = writePump(sub, conn, opts)
	log.Infof("viewer %s disconnected", r.RemoteAddr)
	return err
}

// readPump discards client frames and detaches the subscriber on close or error.
func readPump(h *Hub, sub *Subscriber, conn *websocket.Conn, opts SocketOptions) {
	defer h.Detach(sub)

	wait := opts.PingInterval + opts.WriteTimeout
	conn.SetReadLimit(opts.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.WithComponent("notifier").Debugf("subscriber %s read error: %v", sub.ID(), err)
			}
			return
		}
	}
}

// writePump is the only writer on conn.
func writePump(sub *Subscriber, conn *websocket.Conn, opts SocketOptions) error {
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				logger.WithComponent("notifier").Debugf("subscriber %s write failed: %v", sub.ID(), err)
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(opts.WriteTimeout)); err != nil {
				return err
			}
		case <-sub.Done():
			// Best effort; the peer may already be gone.
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(opts.WriteTimeout))
			return nil
		}
	}
}
