package entity

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

const testInterfaceID = "CentralTest-HmIP-RF"

// backendCall records one write.
type backendCall struct {
	Method    string
	Address   string
	Parameter string
	Value     any
	Values    map[string]any
}

func setValueCall(address, parameter string, value any) backendCall {
	return backendCall{Method: "set_value", Address: address, Parameter: parameter, Value: value}
}

func putParamsetCall(address string, values map[string]any) backendCall {
	return backendCall{Method: "put_paramset", Address: address, Values: values}
}

// fakeBackend records writes and echoes them back to the device as events.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []backendCall
	values map[string]any
	reads  int
	err    error
	device *Device
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: make(map[string]any)}
}

func (b *fakeBackend) InterfaceID() string { return testInterfaceID }

func (b *fakeBackend) SetValue(_ context.Context, channelAddress string, _ homematic.ParamsetKey, parameter string, value any) error {
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return b.err
	}
	b.calls = append(b.calls, setValueCall(channelAddress, parameter, value))
	d := b.device
	b.mu.Unlock()
	if d != nil {
		d.Event(channelAddress, parameter, value)
	}
	return nil
}

func (b *fakeBackend) PutParamset(_ context.Context, address string, _ homematic.ParamsetKey, values map[string]any) error {
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return b.err
	}
	b.calls = append(b.calls, putParamsetCall(address, maps.Clone(values)))
	d := b.device
	b.mu.Unlock()
	if d != nil {
		for parameter, value := range values {
			d.Event(address, parameter, value)
		}
	}
	return nil
}

func (b *fakeBackend) GetValue(_ context.Context, channelAddress string, _ homematic.ParamsetKey, parameter string) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.err != nil {
		return nil, b.err
	}
	return b.values[channelAddress+"."+parameter], nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) lastCall(t *testing.T) backendCall {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.calls, "no backend calls recorded")
	return b.calls[len(b.calls)-1]
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Parameter descriptions shared by the tests.
var (
	rw  = homematic.OperationRead | homematic.OperationWrite | homematic.OperationEvent
	ro  = homematic.OperationRead | homematic.OperationEvent
	wo  = homematic.OperationWrite
	lvl = homematic.ParameterDescription{Type: homematic.TypeFloat, Operations: rw, Min: 0, Max: 1}

	fixedColors = []string{"BLACK", "BLUE", "GREEN", "TURQUOISE", "RED", "PURPLE", "YELLOW", "WHITE", "OLD_VALUE", "DO_NOT_CARE"}
	timeUnits   = []string{"S", "M", "H"}
	notUsed     = map[string]float64{"NOT_USED": TimerNotUsed}
)

func floatParam(ops homematic.Operations, lo, hi float64) homematic.ParameterDescription {
	return homematic.ParameterDescription{Type: homematic.TypeFloat, Operations: ops, Min: lo, Max: hi}
}

func intParam(ops homematic.Operations, lo, hi float64) homematic.ParameterDescription {
	return homematic.ParameterDescription{Type: homematic.TypeInteger, Operations: ops, Min: lo, Max: hi, Special: notUsed}
}

func enumParam(ops homematic.Operations, values ...string) homematic.ParameterDescription {
	return homematic.ParameterDescription{Type: homematic.TypeEnum, Operations: ops, ValueList: values}
}

func boolParam(ops homematic.Operations) homematic.ParameterDescription {
	return homematic.ParameterDescription{Type: homematic.TypeBool, Operations: ops}
}

// channelParams maps channel number to parameter descriptions.
type channelParams map[int]map[string]homematic.ParameterDescription

type fixture struct {
	device  *Device
	backend *fakeBackend
	clock   *fakeClock
}

// newFixture builds a device with the given VALUES parameters, echoing
// writes back as events.
func newFixture(t *testing.T, address, model string, params channelParams) *fixture {
	t.Helper()
	clock := newFakeClock()
	backend := newFakeBackend()
	d, err := NewDevice(DeviceConfig{
		Address:   address,
		Model:     model,
		Interface: homematic.InterfaceHmIPRF,
		Backend:   backend,
		Now:       clock.Now,
	})
	require.NoError(t, err)
	for no, ps := range params {
		ch := d.AddChannel(no)
		for name, desc := range ps {
			d.AddGenericEntity(ch, homematic.ParamsetValues, name, desc)
		}
	}
	backend.device = d
	return &fixture{device: d, backend: backend, clock: clock}
}

// fields resolves field roles to parameters of channel no.
func (f *fixture) fields(no int, roles map[Field]string) map[Field]*GenericEntity {
	out := make(map[Field]*GenericEntity, len(roles))
	ch := homematic.ChannelAddress(f.device.Address(), no)
	for role, parameter := range roles {
		out[role] = f.device.GenericEntity(ch, parameter)
	}
	return out
}

// event pushes a value as the backend would.
func (f *fixture) event(no int, parameter string, value any) {
	f.device.Event(homematic.ChannelAddress(f.device.Address(), no), parameter, value)
}

func merge(ms ...map[Field]*GenericEntity) map[Field]*GenericEntity {
	out := make(map[Field]*GenericEntity)
	for _, m := range ms {
		maps.Copy(out, m)
	}
	return out
}
