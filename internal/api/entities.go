package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-homematic/internal/bridge"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/central"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

// commandSource marks commands that arrived over the REST API.
const commandSource = "api"

// entityView is the JSON form of a custom entity.
type entityView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Platform       entity.Platform `json:"platform"`
	DeviceAddress  string          `json:"device_address"`
	ChannelNo      int             `json:"channel_no"`
	ChannelAddress string          `json:"channel_address"`
	Usage          homematic.Usage `json:"usage"`
	StateUncertain bool            `json:"state_uncertain"`
	State          map[string]any  `json:"state"`
}

func newEntityView(e entity.CustomEntity) entityView {
	return entityView{
		ID:             e.UniqueID(),
		Name:           e.Name(),
		Platform:       e.Platform(),
		DeviceAddress:  homematic.DeviceAddress(e.ChannelAddress()),
		ChannelNo:      e.ChannelNo(),
		ChannelAddress: e.ChannelAddress(),
		Usage:          e.Usage(),
		StateUncertain: e.StateUncertain(),
		State:          e.State(),
	}
}

// commandResponse is returned by the entity command endpoints.
type commandResponse struct {
	Ack    bridge.AckMessage `json:"ack"`
	Entity *entityView       `json:"entity,omitempty"`
}

// handleListEntities returns all custom entities.
//
// Query parameters:
//   - platform: filter by platform (light, switch, cover)
//   - device: filter by device address
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	device := r.URL.Query().Get("device")

	entities := s.central.Entities()
	views := make([]entityView, 0, len(entities))
	for _, e := range entities {
		if platform != "" && string(e.Platform()) != platform {
			continue
		}
		if device != "" && homematic.DeviceAddress(e.ChannelAddress()) != device {
			continue
		}
		views = append(views, newEntityView(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{"entities": views, "count": len(views)})
}

// handleGetEntity returns a single entity by unique id.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.central.Entity(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, central.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		writeInternalError(w, "failed to get entity")
		return
	}
	writeJSON(w, http.StatusOK, newEntityView(e))
}

// handleEntityCommand returns a handler running command on the entity in
// the path. The request body, if any, holds the command parameters.
func (s *Server) handleEntityCommand(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
				return
			}
			writeBadRequest(w, "failed to read request body")
			return
		}

		cmd := bridge.CommandMessage{
			Timestamp:  time.Now().UTC(),
			EntityID:   id,
			Command:    command,
			Parameters: json.RawMessage(body),
			Source:     commandSource,
			UserID:     subjectFromContext(r.Context()),
		}
		ack := s.commands.Execute(r.Context(), cmd)

		resp := commandResponse{Ack: ack}
		if ack.Status == bridge.AckAccepted {
			if e, err := s.central.Entity(id); err == nil {
				view := newEntityView(e)
				resp.Entity = &view
			}
		}
		writeJSON(w, ackHTTPStatus(ack), resp)
	}
}

// ackHTTPStatus maps an acknowledgement to a response status.
func ackHTTPStatus(ack bridge.AckMessage) int {
	if ack.Status == bridge.AckAccepted {
		return http.StatusOK
	}
	if ack.Error == nil {
		return http.StatusBadGateway
	}
	switch ack.Error.Code {
	case bridge.ErrCodeNotConfigured:
		return http.StatusNotFound
	case bridge.ErrCodeInvalidCommand, bridge.ErrCodeInvalidParameters:
		return http.StatusBadRequest
	case bridge.ErrCodeDeviceUnreachable:
		return http.StatusServiceUnavailable
	case bridge.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
