package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/mqtt"
)

// commandTimeout bounds a single command against the backend.
const commandTimeout = 5 * time.Second

// Bridge translates between the Homematic central and MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	central  Central
	mqtt     MQTTClient
	recorder Recorder
	health   *HealthReporter
	logger   homematic.Logger
	now      func() time.Time
	newID    func() string

	mu      sync.RWMutex
	stopped bool

	// Shutdown coordination
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc
}

// Central is the part of the Homematic central the bridge uses.
// *central.Central satisfies it.
type Central interface {
	Entity(uniqueID string) (entity.CustomEntity, error)
	Entities() []entity.CustomEntity
	Devices() []*entity.Device
	Clients() []client.Client
	Available(interfaceID string) bool
	AddEntityUpdateHandler(fn func(entity.CustomEntity))
	AddEventHandler(fn homematic.EventFunc)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Recorder stores state and interface events for later analysis.
// *influxdb.Client satisfies it.
type Recorder interface {
	WriteEntityState(entityID, platform string, state map[string]any)
	WriteInterfaceEvent(interfaceID, eventType string, fields map[string]any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	Central    Central
	MQTTClient MQTTClient

	// Recorder is optional. If nil, nothing is recorded.
	Recorder Recorder

	Version        string
	HealthInterval time.Duration
	Logger         homematic.Logger

	// Now and NewID are for tests.
	Now   func() time.Time
	NewID func() string
}

// New creates a bridge. Call Start to begin operation.
//
// Parameters:
//   - opts: Central and MQTTClient are required; Now defaults to time.Now
//     and NewID to random UUIDs
//
// Returns:
//   - *Bridge: Bridge with its health reporter, not yet subscribed
//   - error: ErrNoCentral or ErrNoMQTTClient
func New(opts Options) (*Bridge, error) {
	if opts.Central == nil {
		return nil, ErrNoCentral
	}
	if opts.MQTTClient == nil {
		return nil, ErrNoMQTTClient
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		central:   opts.Central,
		mqtt:      opts.MQTTClient,
		recorder:  opts.Recorder,
		logger:    homematic.LoggerOrNop(opts.Logger),
		now:       now,
		newID:     newID,
		ctx:       ctx,
		ctxCancel: cancel,
	}
	b.health = NewHealthReporter(HealthReporterConfig{
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Snapshot:  b.snapshot,
		Logger:    opts.Logger,
		Now:       now,
	})
	return b, nil
}

// Health returns the bridge health reporter.
func (b *Bridge) Health() *HealthReporter { return b.health }

// Start subscribes to entity commands, hooks into the central's update and
// event streams, publishes the current state of every entity and starts
// health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logger.Error("failed to publish starting status", "error", err)
	}

	topic := mqtt.Topics{}.AllCommands()
	if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", topic)

	b.central.AddEntityUpdateHandler(b.handleEntityUpdate)
	b.central.AddEventHandler(b.handleEvent)

	entities := b.central.Entities()
	for _, e := range entities {
		b.publishState(e)
	}

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logger.Error("failed to publish healthy status", "error", err)
	}

	b.logger.Info("bridge started", "entities", len(entities))
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		b.mu.Unlock()

		b.ctxCancel()
		b.health.Stop()
		b.wg.Wait()

		b.logger.Info("bridge stopped")
	})
}

func (b *Bridge) isStopped() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stopped
}

// handleMQTTMessage runs a command received on a command topic.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	if b.isStopped() {
		return
	}
	entityID, err := mqtt.EntityIDFromTopic(topic)
	if err != nil {
		b.logger.Warn("invalid command topic", "topic", topic, "error", err)
		return
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Warn("failed to parse command", "topic", topic, "error", err)
		b.publishAck(NewAckError(CommandMessage{ID: b.newID(), EntityID: entityID}, "",
			ErrCodeInvalidCommand, "malformed command payload", b.now()))
		return
	}
	if cmd.EntityID == "" {
		cmd.EntityID = entityID
	}
	if cmd.EntityID != entityID {
		msg := fmt.Sprintf("entity_id %q does not match topic", cmd.EntityID)
		cmd.EntityID = entityID
		b.publishAck(NewAckError(cmd, "", ErrCodeInvalidCommand, msg, b.now()))
		return
	}
	if cmd.Source == "" {
		cmd.Source = "mqtt"
	}

	b.wg.Add(1)
	defer b.wg.Done()
	b.publishAck(b.Execute(b.ctx, cmd))
}

// Execute runs cmd and returns its acknowledgement. The ack is not
// published.
func (b *Bridge) Execute(ctx context.Context, cmd CommandMessage) AckMessage {
	if cmd.ID == "" {
		cmd.ID = b.newID()
	}

	b.logger.Info("received command",
		"command_id", cmd.ID,
		"entity_id", cmd.EntityID,
		"command", cmd.Command,
		"source", cmd.Source,
	)

	e, err := b.central.Entity(cmd.EntityID)
	if err != nil {
		return NewAckError(cmd, "", ErrorCode(err), err.Error(), b.now())
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := RunCommand(cmdCtx, e, cmd.Command, cmd.Parameters); err != nil {
		b.logger.Warn("command failed",
			"command_id", cmd.ID,
			"entity_id", cmd.EntityID,
			"error", err,
		)
		return NewAckError(cmd, e.ChannelAddress(), ErrorCode(err), err.Error(), b.now())
	}
	return NewAckMessage(cmd, e.ChannelAddress(), b.now())
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logger.Error("failed to marshal ack", "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.Ack(ack.EntityID), payload, 1, false); err != nil {
		b.logger.Error("failed to publish ack", "error", err)
	}
}

func (b *Bridge) handleEntityUpdate(e entity.CustomEntity) {
	if b.isStopped() {
		return
	}
	b.publishState(e)
}

// publishState publishes the retained state of e and records it.
func (b *Bridge) publishState(e entity.CustomEntity) {
	state := e.State()
	msg := StateMessage{
		EntityID:  e.UniqueID(),
		Timestamp: b.now().UTC(),
		Name:      e.Name(),
		Platform:  string(e.Platform()),
		State:     state,
		Protocol:  mqtt.Protocol,
		Address:   e.ChannelAddress(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal state", "entity_id", msg.EntityID, "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.State(msg.EntityID), payload, 1, true); err != nil {
		b.logger.Warn("failed to publish state", "entity_id", msg.EntityID, "error", err)
	}

	if b.recorder != nil {
		b.recorder.WriteEntityState(msg.EntityID, msg.Platform, state)
	}
}

// handleEvent forwards interface events from the central.
func (b *Bridge) handleEvent(eventType homematic.EventType, data map[string]any) {
	if b.isStopped() || eventType != homematic.EventInterface {
		return
	}

	interfaceID, _ := data[homematic.EventKeyInterfaceID].(string)
	kind := eventKind(data[homematic.EventKeyType])
	fields, _ := data[homematic.EventKeyData].(map[string]any)

	msg := EventMessage{
		ID:          b.newID(),
		Timestamp:   b.now().UTC(),
		InterfaceID: interfaceID,
		Type:        kind,
		Data:        fields,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal event", "interface_id", interfaceID, "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.Event(interfaceID), payload, 1, false); err != nil {
		b.logger.Warn("failed to publish event", "interface_id", interfaceID, "error", err)
	}

	if b.recorder != nil {
		b.recorder.WriteInterfaceEvent(interfaceID, kind, fields)
	}

	if kind == string(homematic.InterfaceProxy) {
		if err := b.health.PublishNow(); err != nil {
			b.logger.Debug("failed to publish health", "error", err)
		}
	}
}

func eventKind(v any) string {
	switch k := v.(type) {
	case homematic.InterfaceEventType:
		return string(k)
	case string:
		return k
	default:
		return ""
	}
}

// snapshot collects the health view of the central.
func (b *Bridge) snapshot() HealthSnapshot {
	clients := b.central.Clients()
	snap := HealthSnapshot{
		Interfaces: make([]InterfaceHealth, 0, len(clients)),
		Devices:    len(b.central.Devices()),
		Entities:   len(b.central.Entities()),
	}
	for _, cl := range clients {
		ih := InterfaceHealth{
			InterfaceID: cl.InterfaceID(),
			Interface:   cl.Interface(),
			Connected:   cl.IsConnected(),
			Available:   b.central.Available(cl.InterfaceID()),
		}
		if pp := cl.PingPong(); pp != nil {
			ih.PendingPongs = pp.PendingPongCount()
			ih.UnknownPongs = pp.UnknownPongCount()
		}
		snap.Interfaces = append(snap.Interfaces, ih)
	}
	return snap
}
