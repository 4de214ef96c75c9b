package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/mqtt"
)

const defaultHealthInterval = 30 * time.Second

// HealthReporter publishes the bridge health at regular intervals.
type HealthReporter struct {
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	snapshot  func() HealthSnapshot
	now       func() time.Time
	logger    homematic.Logger

	// stopOnce prevents double-close panics
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// HealthPublisher is typically implemented by the MQTT client.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthSnapshot is what the reporter knows about the central at one moment.
type HealthSnapshot struct {
	Interfaces []InterfaceHealth
	Devices    int
	Entities   int
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	Version string

	// Interval is how often to publish health status. Default: 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher

	// Snapshot reports the interfaces, devices and entities of the central.
	Snapshot func() HealthSnapshot

	Logger homematic.Logger
	Now    func() time.Time
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultHealthInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	snapshot := cfg.Snapshot
	if snapshot == nil {
		snapshot = func() HealthSnapshot { return HealthSnapshot{} }
	}

	return &HealthReporter{
		version:   cfg.Version,
		startTime: now(),
		interval:  interval,
		publisher: cfg.Publisher,
		snapshot:  snapshot,
		now:       now,
		logger:    homematic.LoggerOrNop(cfg.Logger),
		done:      make(chan struct{}),
	}
}

// Start begins periodic health reporting until ctx ends or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		if err := h.publishStatus(HealthStopping, ""); err != nil {
			h.logger.Debug("publishing stopping status failed", "error", err)
		}
	})
}

// PublishStarting publishes a "starting" status.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow publishes the current health status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus(h.snapshot())
	return h.publishStatus(status, reason)
}

// Current builds the health message without publishing it.
func (h *HealthReporter) Current() HealthMessage {
	snap := h.snapshot()
	status, reason := h.determineStatus(snap)
	return h.message(status, reason, snap)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logger.Error("failed to publish health", "error", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus(snap HealthSnapshot) (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	for _, iface := range snap.Interfaces {
		if !iface.Connected {
			return HealthDegraded, "interface " + iface.InterfaceID + " disconnected"
		}
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) message(status HealthStatus, reason string, snap HealthSnapshot) HealthMessage {
	now := h.now()
	return HealthMessage{
		Bridge:          mqtt.Protocol,
		Timestamp:       now.UTC(),
		Status:          status,
		Version:         h.version,
		UptimeSeconds:   int64(now.Sub(h.startTime).Seconds()),
		Interfaces:      snap.Interfaces,
		DevicesManaged:  snap.Devices,
		EntitiesManaged: snap.Entities,
		Reason:          reason,
	}
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(h.message(status, reason, h.snapshot()))
	if err != nil {
		return err
	}
	return h.publisher.Publish(mqtt.Topics{}.Health(), payload, 1, true)
}
