// Package logging provides structured logging for the Homematic bridge.
//
// A Logger wraps log/slog. Every entry carries the service and version
// attributes; components add their own with Component and ForInterface,
// so a line from the client of one CCU interface reads:
//
//	{"level":"INFO","msg":"ping sent","service":"graylogic-homematic",
//	 "version":"1.0.0","component":"client","interface_id":"ccu-HmIP-RF"}
//
// Configuration comes from the logging section of the bridge config:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// JWT secrets and bearer tokens must never be logged.
package logging
