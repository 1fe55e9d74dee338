// Package httpapi is the gateway's HTTP surface: the control-plane publish
// endpoint, health, hub statistics and the client delivery mounts.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
)

const (
	// StaffAssignmentsTopic is the broker topic the control-plane assign
	// endpoint publishes to.
	StaffAssignmentsTopic = "stadium/maintenance/staff-assignments"

	eventTypeKey             = "event_type"
	eventTypeStaffAssignment = "staff_assignment"
)

// assignmentFields is the allow-list copied into a normalized assignment
// payload. Extra request fields are dropped, not passed through.
var assignmentFields = []string{"staffId", "section", "task"}

type GatewayHandler struct {
	dispatcher pubsub.EventDispatcher
	hub        registry.Hubber
	logger     *slog.Logger
}

func NewGatewayHandler(dispatcher pubsub.EventDispatcher, hub registry.Hubber, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{dispatcher: dispatcher, hub: hub, logger: logger}
}

// AssignStaff publishes a staff-assignment event onto the broker.
// No authentication at this boundary: the endpoint is reachable only on the
// internal network.
func (h *GatewayHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, err)
		return
	}

	if _, ok := payload[eventTypeKey]; !ok {
		payload = normalizeAssignment(payload)
	}

	if err := h.dispatcher.Publish(r.Context(), StaffAssignmentsTopic, payload); err != nil {
		h.logger.Error("assign publish failed", "error", err)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "published"})
}

// normalizeAssignment synthesizes the discriminator and copies only the
// declared allow-list of fields.
func normalizeAssignment(in map[string]any) map[string]any {
	out := map[string]any{eventTypeKey: eventTypeStaffAssignment}
	for _, field := range assignmentFields {
		if v, ok := in[field]; ok {
			out[field] = v
		}
	}
	return out
}

func (h *GatewayHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *GatewayHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.hub.Stats())
}

func (h *GatewayHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response encode failed", "error", err)
	}
}

func (h *GatewayHandler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}
