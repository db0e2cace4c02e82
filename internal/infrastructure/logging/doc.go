// Package logging builds the log/slog logger shared by qlstats components.
//
// stdout carries the stats display in plain mode, so logs go to stderr by
// default. The terminal UI owns the whole screen; qlstats discards logs in
// that mode unless output is "file".
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr, file, discard
//	  file:
//	    path: "qlstats.log"
//
// Never log the stats password or MQTT/InfluxDB credentials.
package logging
