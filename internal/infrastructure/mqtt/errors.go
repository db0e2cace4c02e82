package mqtt

import "errors"

var (
	// ErrConnectionFailed wraps the reason the first connect did not succeed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected is returned while the broker link is down.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrInvalidQoS is returned for a QoS above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrPayloadTooLarge is returned for payloads over maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrPublishFailed wraps a broker-side publish error or a missing ack.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)
