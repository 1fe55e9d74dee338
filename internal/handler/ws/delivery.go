package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"github.com/stadium-ops/event-gateway/internal/service"
)

type WSHandler struct {
	logger    *slog.Logger
	deliverer service.Deliverer
	pipeline  *service.Pipeline
	upgrader  websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, deliverer service.Deliverer, pipeline *service.Pipeline) *WSHandler {
	return &WSHandler{
		logger:    logger,
		deliverer: deliverer,
		pipeline:  pipeline,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, err := h.deliverer.Subscribe(r.Context())
	if err != nil {
		return
	}
	defer h.deliverer.Unsubscribe(sess.ID())

	h.logger.Info("ws opened", "conn_id", sess.ID())

	// Handshake: frames before connect are ignored, the connection is
	// established regardless of how authentication went.
	if !h.handshake(r.Context(), conn, sess) {
		return
	}

	// Outbound pump. Only this goroutine writes after the handshake, so
	// gorilla's single-writer rule holds.
	done := make(chan struct{})
	go h.pump(r.Context(), conn, sess, done)

	h.readLoop(r.Context(), conn, sess)

	// Closing the session ends the pump via the closed mailbox; the
	// deferred Unsubscribe then no-ops.
	h.deliverer.Unsubscribe(sess.ID())
	<-done
}

// handshake consumes frames until a connect frame arrives and runs it
// through the guard pipeline. Returns false when the connection died first.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn, sess registry.Sessioner) bool {
	for {
		frame, ok := h.readFrame(conn)
		if !ok {
			return false
		}
		if frame.Type != model.FrameConnect {
			continue
		}

		// The auth stage attaches the principal; failure degrades to
		// anonymous, never to a rejected connection.
		h.pipeline.Check(ctx, sess, frame)

		ack := &model.Frame{
			Type:      model.FrameConnected,
			Session:   sess.ID().String(),
			Principal: model.DisplayName(sess.Principal()),
		}
		if err := h.writeFrame(conn, ack); err != nil {
			h.logger.Warn("ws connected ack failed", "error", err)
			return false
		}

		h.logger.Info("ws session established",
			"conn_id", sess.ID(),
			"principal", model.DisplayName(sess.Principal()),
		)
		return true
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess registry.Sessioner) {
	for {
		frame, ok := h.readFrame(conn)
		if !ok {
			return
		}

		switch frame.Type {
		case model.FrameSubscribe:
			switch h.pipeline.Check(ctx, sess, frame) {
			case service.Admit:
				sess.Subscribe(frame.Destination)
				h.logger.Debug("subscription admitted",
					"conn_id", sess.ID(),
					"destination", frame.Destination,
				)
			case service.Deny:
				// Silent drop: no error frame goes back. Clients
				// observe only that no messages ever arrive.
				h.logger.Debug("subscription denied",
					"conn_id", sess.ID(),
					"destination", frame.Destination,
				)
			}

		case model.FrameUnsubscribe:
			sess.Unsubscribe(frame.Destination)

		default:
			// Unknown and repeated connect frames are ignored.
		}
	}
}

// pump drains the session mailbox onto the socket until either side closes.
func (h *WSHandler) pump(ctx context.Context, conn *websocket.Conn, sess registry.Sessioner, done chan<- struct{}) {
	defer close(done)

	recv := sess.Recv()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-recv:
			if !ok {
				return
			}

			frame := &model.Frame{
				Type:        model.FrameMessage,
				Destination: ev.Destination,
			}
			// JSON payloads are embedded verbatim; anything else is
			// carried as a JSON string so the frame stays parseable.
			if json.Valid(ev.Payload) {
				frame.Payload = json.RawMessage(ev.Payload)
			} else {
				frame.Payload, _ = json.Marshal(string(ev.Payload))
			}
			if err := h.writeFrame(conn, frame); err != nil {
				h.logger.Warn("ws send failed", "conn_id", sess.ID(), "error", err)
				return
			}
		}
	}
}

func (h *WSHandler) readFrame(conn *websocket.Conn) (*model.Frame, bool) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	frame := &model.Frame{}
	if err := json.Unmarshal(data, frame); err != nil {
		h.logger.Debug("malformed ws frame ignored", "error", err)
		return &model.Frame{}, true
	}
	return frame, true
}

func (h *WSHandler) writeFrame(conn *websocket.Conn, frame *model.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
