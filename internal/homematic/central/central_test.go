package central

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/profile"
)

const testInterfaceID = "ccu-HmIP-RF"

const plugFixture = `
devices:
  - address: VCU2128127
    type: HmIP-PS
    name: Plug
    channels:
      - no: 2
        paramsets:
          VALUES:
            STATE: {type: BOOL, operations: 5}
        values:
          STATE: false
      - no: 3
        name: Plug switch
        rooms: [Kitchen]
        paramsets:
          VALUES:
            STATE: {type: BOOL, operations: 7}
            ON_TIME: {type: FLOAT, operations: 2, min: 0, max: 111600}
        values:
          STATE: false
`

type firedEvent struct {
	eventType homematic.EventType
	data      map[string]any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []firedEvent
}

func (r *eventRecorder) fire(eventType homematic.EventType, data map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, firedEvent{eventType, data})
	r.mu.Unlock()
}

func (r *eventRecorder) all() []firedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]firedEvent(nil), r.events...)
}

type testCentral struct {
	*Central
	local  *client.Local
	events *eventRecorder
}

func newTestCentral(t *testing.T, interval time.Duration) *testCentral {
	t.Helper()
	c, err := New(Config{
		Name:                    "ccu",
		ConnectionCheckInterval: interval,
		Registry:                profile.NewRegistry(),
	})
	require.NoError(t, err)

	fixture, err := client.ParseFixture([]byte(plugFixture))
	require.NoError(t, err)
	local, err := client.NewLocal(client.LocalConfig{
		InterfaceID:  testInterfaceID,
		Interface:    homematic.InterfaceHmIPRF,
		InstanceName: c.Name(),
		Fixture:      fixture,
		Sink:         c,
		FireEvent:    c.FireEvent,
	})
	require.NoError(t, err)
	require.NoError(t, c.AddClient(local))

	rec := &eventRecorder{}
	c.AddEventHandler(rec.fire)
	t.Cleanup(c.Stop)
	return &testCentral{Central: c, local: local, events: rec}
}

func (tc *testCentral) start(t *testing.T) {
	t.Helper()
	require.NoError(t, tc.Start(context.Background()))
}

func (tc *testCentral) plug(t *testing.T) *entity.Switch {
	t.Helper()
	e, err := tc.Entity("vcu2128127_3")
	require.NoError(t, err)
	sw, ok := e.(*entity.Switch)
	require.True(t, ok)
	return sw
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Registry: profile.NewRegistry()})
	assert.ErrorIs(t, err, ErrNoName)

	_, err = New(Config{Name: "ccu"})
	assert.ErrorIs(t, err, ErrNoRegistry)
}

func TestAddClient(t *testing.T) {
	tc := newTestCentral(t, time.Hour)

	err := tc.AddClient(tc.local)
	assert.ErrorIs(t, err, ErrDuplicateClient)

	cl, ok := tc.Client(testInterfaceID)
	require.True(t, ok)
	assert.Same(t, tc.local, cl)
	assert.Same(t, tc.local, tc.PrimaryClient())

	tc.start(t)
	assert.ErrorIs(t, tc.AddClient(tc.local), ErrAlreadyStarted)
	assert.ErrorIs(t, tc.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartCreatesDevicesAndEntities(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)

	devices := tc.Devices()
	require.Len(t, devices, 1)
	d := devices[0]
	assert.Equal(t, "VCU2128127", d.Address())
	assert.Equal(t, "HmIP-PS", d.Model())
	assert.Equal(t, "Plug", d.Name())
	assert.True(t, d.HasCustomDefinition())

	entities := tc.Entities()
	require.Len(t, entities, 1)
	sw := tc.plug(t)
	assert.Equal(t, "Plug switch", sw.Name())
	assert.Equal(t, homematic.UsageCEPrimary, sw.Usage())

	on, ok := sw.Value()
	require.True(t, ok, "value loaded from bulk data")
	assert.False(t, on)
	assert.False(t, sw.StateUncertain())

	assert.Equal(t, []string{"Kitchen"}, tc.DeviceDetails().GetDeviceRooms("VCU2128127"))
	assert.Equal(t, homematic.InterfaceHmIPRF, tc.DeviceDetails().GetInterface("VCU2128127:3"))
	assert.False(t, tc.DataCache().IsEmpty())

	_, err := tc.Entity("nope")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestEventRoutesToEntity(t *testing.T) {
	tc := newTestCentral(t, time.Hour)

	var mu sync.Mutex
	var updated []string
	tc.AddEntityUpdateHandler(func(e entity.CustomEntity) {
		mu.Lock()
		updated = append(updated, e.UniqueID())
		mu.Unlock()
	})
	tc.start(t)
	sw := tc.plug(t)

	mu.Lock()
	updated = nil
	mu.Unlock()

	require.NoError(t, sw.TurnOn(context.Background(), nil, nil))
	assert.True(t, sw.IsOn(), "write echoed back as event")

	mu.Lock()
	assert.Contains(t, updated, "vcu2128127_3")
	mu.Unlock()

	tc.Event(testInterfaceID, "VCU2128127:2", "STATE", true)
	v, ok := sw.ChannelValue()
	require.True(t, ok)
	assert.True(t, v)

	// Unknown devices and parameters are ignored.
	tc.Event(testInterfaceID, "VCU0000000:1", "STATE", true)
	tc.Event(testInterfaceID, "VCU2128127:3", "BOGUS", true)
}

func TestEntityUpdateHandlersFanOut(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)
	sw := tc.plug(t)

	var mu sync.Mutex
	calls := map[string]int{}
	tc.AddEntityUpdateHandler(func(e entity.CustomEntity) {
		mu.Lock()
		calls["first"]++
		mu.Unlock()
	})
	tc.AddEntityUpdateHandler(func(e entity.CustomEntity) {
		mu.Lock()
		calls["second"]++
		mu.Unlock()
		// Registering from inside a handler must not deadlock.
		tc.AddEntityUpdateHandler(func(entity.CustomEntity) {})
	})

	require.NoError(t, sw.TurnOn(context.Background(), nil, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, calls["first"])
	assert.Equal(t, calls["first"], calls["second"])
}

func TestPongRouting(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)
	pp := tc.local.PingPong()
	require.NotNil(t, pp)

	tc.CheckConnections(context.Background())
	assert.Equal(t, 0, pp.PendingPongCount(), "answered pong acknowledged")
	assert.Equal(t, 0, pp.UnknownPongCount())

	ts := time.Now()
	tc.Event(testInterfaceID, "", homematic.PongParameter, client.PongPayload("other-HmIP-RF", ts))
	assert.Equal(t, 0, pp.UnknownPongCount(), "pong for another interface is dropped")

	tc.Event(testInterfaceID, "", homematic.PongParameter, "garbage")
	assert.Equal(t, 0, pp.UnknownPongCount())

	tc.Event(testInterfaceID, "", homematic.PongParameter, client.PongPayload(testInterfaceID, ts))
	assert.Equal(t, 1, pp.UnknownPongCount(), "pong nobody asked for")

	tc.local.SetAnswerPings(false)
	tc.CheckConnections(context.Background())
	assert.Equal(t, 1, pp.PendingPongCount())
}

func TestConnectionLostAndRestored(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)
	assert.True(t, tc.Available(testInterfaceID))

	tc.local.SetConnected(false)
	tc.CheckConnections(context.Background())
	assert.False(t, tc.Available(testInterfaceID))

	tc.CheckConnections(context.Background())

	tc.local.SetConnected(true)
	tc.CheckConnections(context.Background())
	assert.True(t, tc.Available(testInterfaceID))

	var available []bool
	for _, e := range tc.events.all() {
		if e.eventType != homematic.EventInterface || e.data[homematic.EventKeyType] != homematic.InterfaceProxy {
			continue
		}
		data := e.data[homematic.EventKeyData].(map[string]any)
		available = append(available, data[homematic.EventKeyAvailable].(bool))
	}
	assert.Equal(t, []bool{false, true}, available)
	assert.False(t, tc.DataCache().IsEmpty(), "data reloaded after reconnect")
}

func TestConnectionCheckerRunsUntilStopped(t *testing.T) {
	tc := newTestCentral(t, 5*time.Millisecond)
	tc.local.SetAnswerPings(false)
	tc.start(t)

	pp := tc.local.PingPong()
	require.Eventually(t, func() bool { return pp.PendingPongCount() >= 2 }, time.Second, 5*time.Millisecond)

	tc.Stop()
	count := pp.PendingPongCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, count, pp.PendingPongCount())

	tc.Stop()
}

func TestLoadAndRefreshEntityDataMaster(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)
	tc.DataCache().Clear()

	tc.LoadAndRefreshEntityData(context.Background(), homematic.ParamsetMaster)
	assert.True(t, tc.DataCache().IsEmpty(), "MASTER refresh does not load bulk data")

	tc.LoadAndRefreshEntityData(context.Background(), homematic.ParamsetValues)
	assert.False(t, tc.DataCache().IsEmpty())
}

func TestRemoveDevice(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.start(t)

	require.NoError(t, tc.RemoveDevice("VCU2128127"))
	_, ok := tc.Device("VCU2128127")
	assert.False(t, ok)
	_, ok = tc.DeviceDetails().GetName("VCU2128127:3")
	assert.False(t, ok)
	assert.Equal(t, []string{"Kitchen"}, tc.DeviceDetails().GetChannelRooms("VCU2128127:3"))

	assert.ErrorIs(t, tc.RemoveDevice("VCU2128127"), ErrDeviceNotFound)
}

func TestSetSystemVariable(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	require.NoError(t, tc.SetSystemVariable(context.Background(), "alarm", true))
	v, ok := tc.local.SystemVariable("alarm")
	require.True(t, ok)
	assert.Equal(t, true, v)

	empty, err := New(Config{Name: "empty", Registry: profile.NewRegistry()})
	require.NoError(t, err)
	assert.ErrorIs(t, empty.SetSystemVariable(context.Background(), "alarm", true), ErrNoClient)
}

func TestClearCaches(t *testing.T) {
	tc := newTestCentral(t, time.Hour)
	tc.local.SetAnswerPings(false)
	tc.start(t)
	tc.CheckConnections(context.Background())
	require.Equal(t, 1, tc.local.PingPong().PendingPongCount())

	tc.ClearCaches()
	assert.True(t, tc.DataCache().IsEmpty())
	_, ok := tc.DeviceDetails().GetName("VCU2128127")
	assert.False(t, ok)
	assert.Equal(t, 0, tc.local.PingPong().PendingPongCount())
}
