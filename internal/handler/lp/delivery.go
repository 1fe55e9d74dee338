// Package lp is the long-poll fallback delivery surface for clients that
// cannot hold a websocket open. Each request is a short-lived session
// subscribed to a single destination, admitted by the same guard pipeline
// as the websocket path.
package lp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/service"
)

const (
	pollTimeout = 30 * time.Second
	batchLimit  = 15
)

type LPHandler struct {
	deliverer service.Deliverer
	pipeline  *service.Pipeline
}

func NewLPHandler(deliverer service.Deliverer, pipeline *service.Pipeline) *LPHandler {
	return &LPHandler{deliverer: deliverer, pipeline: pipeline}
}

// Poll holds the request until an event arrives or the timeout passes.
// A denied destination drains into an empty 204, indistinguishable from a
// quiet channel, matching the silent-denial contract.
func (h *LPHandler) Poll(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" {
		http.Error(w, "destination is required", http.StatusBadRequest)
		return
	}

	sess, err := h.deliverer.Subscribe(r.Context())
	if err != nil {
		http.Error(w, "failed to subscribe", http.StatusInternalServerError)
		return
	}
	defer h.deliverer.Unsubscribe(sess.ID())

	// Request headers play the role of the connect frame headers.
	connect := &model.Frame{
		Type:    model.FrameConnect,
		Headers: credentialHeaders(r),
	}
	h.pipeline.Check(r.Context(), sess, connect)

	subscribe := &model.Frame{
		Type:        model.FrameSubscribe,
		Destination: destination,
	}
	if h.pipeline.Check(r.Context(), sess, subscribe) != service.Admit {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sess.Subscribe(destination)

	var events []*model.Event

	recv := sess.Recv()
	select {
	case <-r.Context().Done():
		// The client went away; the status is for the access log only.
		w.WriteHeader(http.StatusNoContent)
		return

	case <-time.After(pollTimeout):
		w.WriteHeader(http.StatusNoContent)
		return

	case ev, ok := <-recv:
		if !ok {
			return
		}
		events = append(events, ev)

		// Drain whatever else is buffered to batch the response.
	drainLoop:
		for i := 0; i < batchLimit; i++ {
			select {
			case next, more := <-recv:
				if !more {
					break drainLoop
				}
				events = append(events, next)
			default:
				break drainLoop
			}
		}
	}

	frames := make([]*model.Frame, 0, len(events))
	for _, ev := range events {
		frame := &model.Frame{
			Type:        model.FrameMessage,
			Destination: ev.Destination,
		}
		if json.Valid(ev.Payload) {
			frame.Payload = json.RawMessage(ev.Payload)
		} else {
			frame.Payload, _ = json.Marshal(string(ev.Payload))
		}
		frames = append(frames, frame)
	}

	data, err := json.Marshal(frames)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func credentialHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, 2)
	for _, name := range []string{"Authorization", "token"} {
		if v := r.Header.Get(name); v != "" {
			headers[name] = v
		}
	}
	return headers
}
