package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// PongPayload builds the value of a PONG event: "<interface_id>#<timestamp>".
func PongPayload(interfaceID string, ts time.Time) string {
	return interfaceID + "#" + ts.Local().Format(homematic.PingTimestampFormat)
}

// ParsePongPayload splits a PONG value into interface id and timestamp.
func ParsePongPayload(value any) (string, time.Time, error) {
	s, ok := value.(string)
	if !ok {
		return "", time.Time{}, fmt.Errorf("pong payload is %T, not a string", value)
	}
	interfaceID, stamp, ok := strings.Cut(s, "#")
	if !ok || interfaceID == "" {
		return "", time.Time{}, fmt.Errorf("malformed pong payload %q", s)
	}
	ts, err := time.ParseInLocation(homematic.PingTimestampFormat, stamp, time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parsing pong timestamp: %w", err)
	}
	return interfaceID, ts, nil
}
