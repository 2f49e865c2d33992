// Package mqtt provides MQTT client connectivity for progress
// publishing.
//
// This package manages:
//   - Connection to a Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The sequencer publishes a progress event after every dispatched
// command. An observer anywhere on the local network (typically a phone
// next to the telescope) subscribes and watches the run without
// touching the machine driving the camera.
//
//	sequencer → MQTT broker → observers
//
// Publishing is strictly optional: the run loop works identically with
// no broker configured, and a broker that drops mid-run costs progress
// events, never captures.
//
// # Security Considerations
//
//   - TLS is available for brokers beyond the local network (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.RunProgress(run.ID)
//	client.Publish(topic, payload, 0, false)
package mqtt
