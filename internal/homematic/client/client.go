package client

import (
	"context"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
)

// Client is a connection to one backend interface, e.g. HmIP-RF on a CCU.
type Client interface {
	// InterfaceID is unique per central and interface, e.g. "ccu-HmIP-RF".
	InterfaceID() string
	Interface() string
	Model() string

	SupportsPingPong() bool
	// PingPong returns the client's ping-pong cache, or nil when ping-pong
	// is not supported.
	PingPong() *cache.PingPongCache

	ListDevices(ctx context.Context) ([]homematic.DeviceDescription, error)
	GetParamsetDescriptions(ctx context.Context, address string) (homematic.ParamsetDescriptions, error)

	FetchDeviceDetails(ctx context.Context) error
	FetchAllDeviceData(ctx context.Context) error
	GetAllRooms(ctx context.Context) (map[string][]string, error)
	GetAllFunctions(ctx context.Context) (map[string][]string, error)

	GetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string) (any, error)
	SetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string, value any) error
	PutParamset(ctx context.Context, address string, paramsetKey homematic.ParamsetKey, values map[string]any) error
	SetSystemVariable(ctx context.Context, name string, value any) error

	// CheckConnectionAvailability checks the backend connection. With handlePingPong
	// set and ping-pong supported, the check is a ping whose pong arrives
	// later as a PONG event.
	CheckConnectionAvailability(ctx context.Context, handlePingPong bool) bool
	IsConnected() bool
}

// Sink receives what a client learns from its backend.
type Sink interface {
	cache.DetailsSink

	// AddData merges bulk values keyed by cache.DataKey.
	AddData(data map[string]any)

	// Event reports a parameter change, including PONG answers.
	Event(interfaceID, channelAddress, parameter string, value any)
}
