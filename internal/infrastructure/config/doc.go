// Package config loads the qlstats configuration.
//
// Values come from Default, then an optional YAML file, then QLSTATS_*
// environment variables such as QLSTATS_ZMQ_PASSWORD or QLSTATS_MQTT_ENABLED.
// cmd/qlstats applies its flags last and re-validates.
//
//	cfg, err := config.Load("qlstats.yaml")
//	if err != nil {
//	    return err
//	}
//
// Prefer QLSTATS_ZMQ_PASSWORD over storing the stats password in the file,
// and keep the file mode at 0600 when it holds credentials.
package config
