package influxdb

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

type recordingWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *recordingWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *recordingWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

func (w *recordingWriter) lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.points))
	for _, p := range w.points {
		out = append(out, write.PointToLineProtocol(p, time.Second))
	}
	return out
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(connected bool) (*Client, *recordingWriter) {
	w := &recordingWriter{}
	return &Client{
		writeAPI:  w,
		now:       func() time.Time { return fixedNow },
		connected: connected,
	}, w
}

func TestWriteEntityState(t *testing.T) {
	c, w := newTestClient(true)

	c.WriteEntityState("vcu0000001_4", "light", map[string]any{
		"on":         true,
		"brightness": 255,
		"kind":       "dimmer",
		"hs_color":   struct{ H, S float64 }{1, 2},
		"effects":    []string{"slow"},
	})

	lines := w.lines()
	if len(lines) != 1 {
		t.Fatalf("points = %d, want 1", len(lines))
	}
	line := lines[0]

	for _, want := range []string{
		MeasurementEntityState,
		"entity_id=vcu0000001_4",
		"platform=light",
		"on=true",
		"brightness=255i",
		`kind="dimmer"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	for _, skipped := range []string{"hs_color", "effects"} {
		if strings.Contains(line, skipped) {
			t.Errorf("line %q contains composite field %q", line, skipped)
		}
	}
	if !strings.HasSuffix(line, " 1772366400\n") && !strings.HasSuffix(line, " 1772366400") {
		t.Errorf("line %q does not end with the fixed timestamp", line)
	}
}

func TestWriteEntityState_NoScalarFields(t *testing.T) {
	c, w := newTestClient(true)

	c.WriteEntityState("vcu0000001_4", "light", map[string]any{"effects": []string{"slow"}})

	if len(w.lines()) != 0 {
		t.Errorf("points = %v, want none", w.lines())
	}
}

func TestWriteInterfaceEvent(t *testing.T) {
	c, w := newTestClient(true)

	c.WriteInterfaceEvent("ccu-HmIP-RF", "PENDING_PONG", map[string]any{
		"pong_mismatch_count": 16,
		"instance_name":       "ccu",
	})
	c.WriteInterfaceEvent("ccu-HmIP-RF", "PROXY", map[string]any{"available": false})

	lines := w.lines()
	if len(lines) != 2 {
		t.Fatalf("points = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "interface_id=ccu-HmIP-RF") || !strings.Contains(lines[0], "pong_mismatch_count=16i") {
		t.Errorf("line[0] = %q", lines[0])
	}
	if !strings.Contains(lines[1], "type=PROXY") || !strings.Contains(lines[1], "available=false") {
		t.Errorf("line[1] = %q", lines[1])
	}
}

func TestWrite_Disconnected(t *testing.T) {
	c, w := newTestClient(false)

	c.WriteEntityState("vcu0000001_4", "switch", map[string]any{"on": true})
	c.WriteInterfaceEvent("ccu-HmIP-RF", "PROXY", map[string]any{"available": true})
	c.WritePoint("custom", nil, map[string]any{"value": 1.5})
	c.Flush()

	if len(w.lines()) != 0 {
		t.Errorf("points = %v, want none while disconnected", w.lines())
	}
	if w.flushes != 0 {
		t.Errorf("flushes = %d, want 0 while disconnected", w.flushes)
	}
}

func TestWritePointWithTime(t *testing.T) {
	c, w := newTestClient(true)
	ts := fixedNow.Add(-time.Hour)

	c.WritePointWithTime("custom", map[string]string{"source": "test"}, map[string]any{"value": 88.8}, ts)
	c.Flush()

	lines := w.lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "value=88.8") {
		t.Errorf("lines = %v", lines)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1", w.flushes)
	}
}
