package bridge

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/mqtt"
)

// CommandMessage is sent to the bridge to run an entity command.
// Topic: graylogic/command/homematic/{entity_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. The bridge
	// generates one when it is missing.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// EntityID is taken from the topic when empty.
	EntityID string `json:"entity_id"`

	// Command is one of turn_on, turn_off, refresh or a cover command
	// such as set_position.
	Command string `json:"command"`

	// Parameters are decoded according to the entity platform, e.g.
	//   {"brightness": 128, "ramp_time": 2} for a light
	//   {"on_time": 300} for a switch
	//   {"position": 40} for a cover
	Parameters json.RawMessage `json:"parameters,omitempty"`

	// Source indicates where the command originated ("api", "automation", "mqtt").
	Source string `json:"source,omitempty"`

	UserID string `json:"user_id,omitempty"`
}

// Commands understood by the bridge.
const (
	CommandTurnOn      = "turn_on"
	CommandTurnOff     = "turn_off"
	CommandRefresh     = "refresh"
	CommandOpen        = "open"
	CommandClose       = "close"
	CommandStop        = "stop"
	CommandSetPosition = "set_position"
	CommandOpenTilt    = "open_tilt"
	CommandCloseTilt   = "close_tilt"
	CommandStopTilt    = "stop_tilt"
	CommandVent        = "vent"
)

// AckStatus represents the acknowledgement status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was run against the backend.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be run.
	AckFailed AckStatus = "failed"

	// AckTimeout indicates the backend did not answer in time.
	AckTimeout AckStatus = "timeout"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/homematic/{entity_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	EntityID  string    `json:"entity_id"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`

	// Address is the channel address of the entity, e.g. "VCU0000001:4".
	Address string `json:"address,omitempty"`

	// Error contains details if status is "failed" or "timeout".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeProtocolError     = "PROTOCOL_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeNotConfigured     = "NOT_CONFIGURED"
)

// StateMessage carries the state of a custom entity.
// Topic: graylogic/state/homematic/{entity_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`

	// State depends on the platform:
	//   Light:  {"on": true, "brightness": 128, "kind": "dimmer", "uncertain": false}
	//   Switch: {"on": false, "uncertain": false}
	State map[string]any `json:"state"`

	Protocol string `json:"protocol"`
	Address  string `json:"address"`
}

// EventMessage carries an interface event fired by the central.
// Topic: graylogic/event/homematic/{interface_id}
type EventMessage struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	InterfaceID string         `json:"interface_id"`
	Type        string         `json:"type"`
	Data        map[string]any `json:"data,omitempty"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the operational status of the bridge.
// Topic: graylogic/health/homematic
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge          string            `json:"bridge"`
	Timestamp       time.Time         `json:"timestamp"`
	Status          HealthStatus      `json:"status"`
	Version         string            `json:"version"`
	UptimeSeconds   int64             `json:"uptime_seconds"`
	Interfaces      []InterfaceHealth `json:"interfaces,omitempty"`
	DevicesManaged  int               `json:"devices_managed"`
	EntitiesManaged int               `json:"entities_managed"`
	Reason          string            `json:"reason,omitempty"`
}

// InterfaceHealth describes one backend interface.
type InterfaceHealth struct {
	InterfaceID  string `json:"interface_id"`
	Interface    string `json:"interface"`
	Connected    bool   `json:"connected"`
	Available    bool   `json:"available"`
	PendingPongs int    `json:"pending_pongs"`
	UnknownPongs int    `json:"unknown_pongs"`
}

// NewAckMessage creates a successful acknowledgement.
func NewAckMessage(cmd CommandMessage, address string, now time.Time) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: now.UTC(),
		EntityID:  cmd.EntityID,
		Status:    AckAccepted,
		Protocol:  mqtt.Protocol,
		Address:   address,
	}
}

// NewAckError creates an acknowledgement with error details.
func NewAckError(cmd CommandMessage, address, code, message string, now time.Time) AckMessage {
	status := AckFailed
	if code == ErrCodeTimeout {
		status = AckTimeout
	}
	ack := NewAckMessage(cmd, address, now)
	ack.Status = status
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}
