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
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/mqtt"
)

// handleHealth returns the bridge health. Without a health source the
// status is derived from the availability of the interfaces.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health != nil {
		writeJSON(w, http.StatusOK, s.health.Current())
		return
	}

	msg := bridge.HealthMessage{
		Bridge:          mqtt.Protocol,
		Timestamp:       time.Now().UTC(),
		Status:          bridge.HealthHealthy,
		Version:         s.version,
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		DevicesManaged:  len(s.central.Devices()),
		EntitiesManaged: len(s.central.Entities()),
	}
	for _, cl := range s.central.Clients() {
		ih := bridge.InterfaceHealth{
			InterfaceID: cl.InterfaceID(),
			Interface:   cl.Interface(),
			Connected:   cl.IsConnected(),
			Available:   s.central.Available(cl.InterfaceID()),
		}
		if pp := cl.PingPong(); pp != nil {
			ih.PendingPongs = pp.PendingPongCount()
			ih.UnknownPongs = pp.UnknownPongCount()
		}
		if !ih.Connected || !ih.Available {
			msg.Status = bridge.HealthDegraded
			msg.Reason = "interface " + ih.InterfaceID + " unavailable"
		}
		msg.Interfaces = append(msg.Interfaces, ih)
	}
	writeJSON(w, http.StatusOK, msg)
}

// refreshRequest is the optional body of POST /caches/refresh.
type refreshRequest struct {
	ParamsetKey homematic.ParamsetKey `json:"paramset_key"`
	// Reload drops the bulk data cache first so values are fetched again.
	Reload bool `json:"reload"`
}

// handleRefreshCaches reloads entity values from the backend.
func (s *Server) handleRefreshCaches(w http.ResponseWriter, r *http.Request) {
	req := refreshRequest{ParamsetKey: homematic.ParamsetValues}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	switch req.ParamsetKey {
	case "":
		req.ParamsetKey = homematic.ParamsetValues
	case homematic.ParamsetValues, homematic.ParamsetMaster:
	default:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "paramset_key must be VALUES or MASTER")
		return
	}

	if req.Reload {
		s.central.DataCache().Clear()
	}
	s.central.LoadAndRefreshEntityData(r.Context(), req.ParamsetKey)

	s.logger.Info("entity data refreshed",
		"paramset_key", req.ParamsetKey,
		"reload", req.Reload,
		"user_id", subjectFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"paramset_key": req.ParamsetKey,
		"data_entries": s.central.DataCache().Len(),
		"entities":     len(s.central.Entities()),
	})
}

// pingPongView is the JSON form of an interface's ping-pong state.
type pingPongView struct {
	InterfaceID      string `json:"interface_id"`
	Supported        bool   `json:"supported"`
	Available        bool   `json:"available"`
	PendingPongs     int    `json:"pending_pongs"`
	UnknownPongs     int    `json:"unknown_pongs"`
	HighPendingPongs bool   `json:"high_pending_pongs"`
	HighUnknownPongs bool   `json:"high_unknown_pongs"`
}

// handleGetPingPong returns the ping-pong counters of an interface.
func (s *Server) handleGetPingPong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cl, ok := s.central.Client(id)
	if !ok {
		writeNotFound(w, "interface not found")
		return
	}

	view := pingPongView{
		InterfaceID: id,
		Available:   s.central.Available(id),
	}
	if pp := cl.PingPong(); pp != nil {
		view.Supported = true
		view.PendingPongs = pp.PendingPongCount()
		view.UnknownPongs = pp.UnknownPongCount()
		view.HighPendingPongs = pp.HighPendingPongs()
		view.HighUnknownPongs = pp.HighUnknownPongs()
	}
	writeJSON(w, http.StatusOK, view)
}
