// Package mqtt is the broker connection behind the MQTT relay.
//
// Topics live under a configurable prefix (default "qlstats"):
//
//	qlstats/event/<TYPE>    raw stats messages, one topic per Quake Live TYPE
//	qlstats/zmq/status      retained stats connection state
//	qlstats/system/status   retained relay presence, doubling as the last will
//
// The client only publishes. It keeps no broker session, reconnects with
// backoff, and rejects publications while the link is down instead of
// queueing them; buffering is the relay's job.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(client.Topics().Event("PLAYER_KILL"), []byte(raw), 0, false)
//
// Use TLS (mqtt.broker.tls) for any broker that is not on localhost.
package mqtt
