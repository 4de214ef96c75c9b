package homematic

import "time"

// Cache and health-check defaults.
const (
	// MaxCacheAge is how long cached device data stays valid.
	MaxCacheAge = 60 * time.Second

	// PingPongMismatchCount is the default allowed pending/unknown pong delta.
	PingPongMismatchCount = 15

	// PingPongMismatchTTL is how long a ping or pong timestamp is tracked.
	PingPongMismatchTTL = 300 * time.Second

	// DefaultInterface is reported for addresses with no known interface.
	DefaultInterface = InterfaceBidCosRF
)

// Interface names as announced by the CCU.
const (
	InterfaceBidCosRF    = "BidCos-RF"
	InterfaceBidCosWired = "BidCos-Wired"
	InterfaceHmIPRF      = "HmIP-RF"
	InterfaceVirtual     = "VirtualDevices"
	InterfaceLocal       = "Local"
)

// ParamsetKey selects a paramset of a channel.
type ParamsetKey string

// Paramset keys.
const (
	ParamsetValues ParamsetKey = "VALUES"
	ParamsetMaster ParamsetKey = "MASTER"
)

// ParameterType is the backend type of a parameter.
type ParameterType string

// Parameter types.
const (
	TypeBool    ParameterType = "BOOL"
	TypeInteger ParameterType = "INTEGER"
	TypeFloat   ParameterType = "FLOAT"
	TypeEnum    ParameterType = "ENUM"
	TypeString  ParameterType = "STRING"
	TypeAction  ParameterType = "ACTION"
)

// Operations is the bit set of what can be done with a parameter.
type Operations int

// Operation bits.
const (
	OperationRead  Operations = 1
	OperationWrite Operations = 2
	OperationEvent Operations = 4
)

// Has reports whether all bits of op are set.
func (o Operations) Has(op Operations) bool {
	return o&op == op
}

// EventType names an event fired by the central.
type EventType string

// Event types.
const (
	EventInterface EventType = "homematic.interface"
	EventKeypress  EventType = "homematic.keypress"
	EventDevice    EventType = "homematic.device"
)

// InterfaceEventType is the kind of an interface event.
type InterfaceEventType string

// Interface event kinds.
const (
	InterfacePendingPong InterfaceEventType = "PENDING_PONG"
	InterfaceUnknownPong InterfaceEventType = "UNKNOWN_PONG"
	InterfaceCallback    InterfaceEventType = "CALLBACK"
	InterfaceProxy       InterfaceEventType = "PROXY"
)

// Keys of the event data maps handed to event callbacks.
const (
	EventKeyInterfaceID       = "interface_id"
	EventKeyType              = "type"
	EventKeyData              = "data"
	EventKeyInstanceName      = "instance_name"
	EventKeyPongMismatchCount = "pong_mismatch_count"
	EventKeyAvailable         = "available"
)

// EventFunc receives events fired by the caches and the central.
type EventFunc func(eventType EventType, data map[string]any)

// PongParameter is the pseudo parameter the backend uses to answer a ping.
const PongParameter = "PONG"

// PingTimestampFormat formats the timestamp carried in a ping/pong payload.
const PingTimestampFormat = "20060102 15:04:05.000000"

// Usage classifies whether and how an entity is exposed.
type Usage string

// Entity usages.
const (
	UsageCEPrimary   Usage = "ce_primary"
	UsageCESecondary Usage = "ce_secondary"
	UsageCEVisible   Usage = "ce_visible"
	UsageEntity      Usage = "entity"
	UsageEvent       Usage = "event"
	UsageNoCreate    Usage = "entity_no_create"
)
