package applications

import (
	"context"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/middleware"

	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// El token ya viene validado por AuthContext; el origen no agrega nada.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamFrame es lo que recibe el dashboard en cada cambio.
type streamFrame struct {
	Type         string                `json:"type"`
	Applications []applicationResponse `json:"applications"`
	Stale        bool                  `json:"stale"`
	Error        string                `json:"error,omitempty"`
}

// streamHandler godoc
// @Summary Estado de mis solicitudes en tiempo real (websocket)
// @Description Envía un snapshot completo al conectar y otro después de cada cambio.
// @Tags applications
// @Param access_token query string false "JWT (los browsers no mandan headers en el handshake)"
// @Success 101 {object} streamFrame
// @Failure 401 {string} string "unauthorized"
// @Router /me/applications/stream [get]
func streamHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.Session(r.Context())
		if err := sess.Require(); err != nil {
			writeError(w, err)
			return
		}

		live, err := svc.OpenStatusSync(sess)
		if err != nil {
			http.Error(w, "status stream unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade ya respondió con el error.
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()

		if err := live.Start(ctx); err != nil {
			return
		}
		defer live.Close()

		// El cliente no manda nada; leemos sólo para detectar el cierre y los pongs.
		go func() {
			defer cancel()
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(streamPingPeriod)
		defer ping.Stop()

		if err := writeFrame(conn, live); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(streamWriteWait),
				)
				return
			case <-live.Changes():
				if err := writeFrame(conn, live); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, s *StatusSync) error {
	frame := streamFrame{
		Type:         "snapshot",
		Applications: toApplicationResponses(s.Snapshot()),
		Stale:        s.Stale(),
	}
	if err := s.Err(); err != nil {
		frame.Error = "unable to load applications"
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(frame)
}
