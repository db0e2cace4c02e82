package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "qlstats"

// Topics provides builders for qlstats MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics("qlstats")
//	topics.Event("PLAYER_KILL") // "qlstats/event/PLAYER_KILL"
type Topics struct {
	prefix string
}

// NewTopics returns a builder rooted at prefix. Surrounding slashes are
// trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.prefix
}

// Event returns the topic for a stats message of the given Quake Live type.
// MQTT wildcard and separator characters in the type are replaced.
//
// Example: qlstats/event/PLAYER_KILL
func (t Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix, sanitiseLevel(eventType))
}

// AllEvents returns the wildcard matching every event topic.
//
// Example: qlstats/event/+
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", t.prefix)
}

// ZMQStatus returns the retained topic for the stats connection state.
//
// Example: qlstats/zmq/status
func (t Topics) ZMQStatus() string {
	return fmt.Sprintf("%s/zmq/status", t.prefix)
}

// SystemStatus returns the relay client's own presence topic (LWT).
//
// Example: qlstats/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}

var levelReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func sanitiseLevel(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return levelReplacer.Replace(s)
}
