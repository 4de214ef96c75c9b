package mqtt

import (
	"fmt"
	"strings"
)

// Protocol is the protocol segment of every homematic bridge topic.
const Protocol = "homematic"

// TopicPrefix is the root of all Gray Logic topics.
const TopicPrefix = "graylogic"

// Topic categories.
const (
	CategoryCommand = "command"
	CategoryAck     = "ack"
	CategoryState   = "state"
	CategoryEvent   = "event"
	CategoryHealth  = "health"
)

// Topics builds the homematic bridge topics.
//
//	topics := mqtt.Topics{}
//	topics.State("vcu0000001_4")
//	// Returns: "graylogic/state/homematic/vcu0000001_4"
type Topics struct{}

func bridgeTopic(category, id string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefix, category, Protocol, id)
}

// Command returns the topic commands for an entity arrive on.
//
// Example: graylogic/command/homematic/vcu0000001_4
func (Topics) Command(entityID string) string {
	return bridgeTopic(CategoryCommand, entityID)
}

// Ack returns the topic command acknowledgements for an entity go to.
//
// Example: graylogic/ack/homematic/vcu0000001_4
func (Topics) Ack(entityID string) string {
	return bridgeTopic(CategoryAck, entityID)
}

// State returns the retained state topic of an entity.
//
// Example: graylogic/state/homematic/vcu0000001_4
func (Topics) State(entityID string) string {
	return bridgeTopic(CategoryState, entityID)
}

// Event returns the topic interface events are published on.
//
// Example: graylogic/event/homematic/ccu-HmIP-RF
func (Topics) Event(interfaceID string) string {
	return bridgeTopic(CategoryEvent, interfaceID)
}

// Health returns the retained bridge health topic. It is also the LWT topic.
//
// Example: graylogic/health/homematic
func (Topics) Health() string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, CategoryHealth, Protocol)
}

// AllCommands returns the wildcard subscription for every entity command.
//
// Example: graylogic/command/homematic/+
func (Topics) AllCommands() string {
	return bridgeTopic(CategoryCommand, "+")
}

// AllStates returns the wildcard subscription for every entity state.
//
// Example: graylogic/state/homematic/+
func (Topics) AllStates() string {
	return bridgeTopic(CategoryState, "+")
}

// EntityIDFromTopic extracts the trailing id of a homematic bridge topic,
// e.g. "vcu0000001_4" from "graylogic/command/homematic/vcu0000001_4".
func EntityIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[2] != Protocol || parts[3] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[3], nil
}

// CategoryFromTopic extracts the category segment of a bridge topic.
func CategoryFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != TopicPrefix || parts[2] != Protocol {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[1], nil
}
