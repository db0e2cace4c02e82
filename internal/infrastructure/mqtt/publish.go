package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// maxPayloadSize caps a single publication. Match reports, the largest
// stats messages, stay far below it.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits up to five seconds for the
// broker's acknowledgement (immediately for QoS 0).
//
// The relay publishes raw stats messages this way:
//
//	err := client.Publish(client.Topics().Event("PLAYER_KILL"), []byte(raw), 0, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: no ack within %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// publishPresence sends the retained presence record without waiting.
func (c *Client) publishPresence(online bool, reason string) pahomqtt.Token {
	payload := presencePayload(c.cfg.Broker.ClientID, online, reason)
	return c.client.Publish(c.topics.SystemStatus(), byte(c.cfg.QoS), true, payload)
}
