// Package mqtt connects the Homematic bridge to the Gray Logic MQTT bus.
//
// It wraps github.com/eclipse/paho.mqtt.golang with:
//   - Connection management with automatic reconnection
//   - A retained health topic with a Last Will and Testament (LWT)
//   - Subscription tracking so subscriptions survive a reconnect
//   - Panic recovery in message handlers
//   - Topic builders for the homematic namespace
//
// # Topic Structure
//
// Bridge topics use the flat Gray Logic scheme graylogic/{category}/homematic/{id}:
//
//	graylogic/command/homematic/{entity_id}     commands to an entity (subscribed)
//	graylogic/ack/homematic/{entity_id}         command acknowledgements
//	graylogic/state/homematic/{entity_id}       entity state (retained)
//	graylogic/event/homematic/{interface_id}    interface events (ping-pong, availability)
//	graylogic/health/homematic                  bridge health (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1, func(topic string, payload []byte) error {
//	    id, _ := mqtt.EntityIDFromTopic(topic)
//	    return handleCommand(id, payload)
//	})
//
// # Quality of Service
//
// Commands, acks and state are published with QoS 1. State and health
// messages are retained so late subscribers see the current value.
package mqtt
