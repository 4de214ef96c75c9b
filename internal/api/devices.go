package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

// deviceView is the JSON form of a device.
type deviceView struct {
	Address     string   `json:"address"`
	Model       string   `json:"model"`
	Name        string   `json:"name"`
	Interface   string   `json:"interface"`
	InterfaceID string   `json:"interface_id"`
	Firmware    string   `json:"firmware,omitempty"`
	Available   bool     `json:"available"`
	Rooms       []string `json:"rooms"`
	Channels    []string `json:"channels"`
	Entities    []string `json:"entities"`
}

func (s *Server) newDeviceView(d *entity.Device) deviceView {
	v := deviceView{
		Address:     d.Address(),
		Model:       d.Model(),
		Name:        d.Name(),
		Interface:   d.Interface(),
		InterfaceID: d.InterfaceID(),
		Firmware:    d.Firmware(),
		Available:   s.central.Available(d.InterfaceID()),
		Rooms:       s.central.DeviceDetails().GetDeviceRooms(d.Address()),
		Channels:    d.ChannelAddresses(),
		Entities:    []string{},
	}
	if v.Rooms == nil {
		v.Rooms = []string{}
	}
	for _, e := range d.CustomEntities() {
		v.Entities = append(v.Entities, e.UniqueID())
	}
	return v
}

// handleListDevices returns all devices, sorted by address.
//
// Query parameters:
//   - interface: filter by interface (HmIP-RF, BidCos-RF, ...)
//   - model: filter by device model
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ifaceFilter := r.URL.Query().Get("interface")
	modelFilter := r.URL.Query().Get("model")

	devices := s.central.Devices()
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		if ifaceFilter != "" && d.Interface() != ifaceFilter {
			continue
		}
		if modelFilter != "" && !strings.EqualFold(d.Model(), modelFilter) {
			continue
		}
		views = append(views, s.newDeviceView(d))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Address < views[j].Address })

	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleGetDevice returns a single device by address.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	address := strings.ToUpper(chi.URLParam(r, "address"))

	d, ok := s.central.Device(address)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, s.newDeviceView(d))
}
