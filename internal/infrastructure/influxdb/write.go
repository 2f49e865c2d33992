package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordDispatch writes one dispatch latency measurement.
//
// The sequencer calls this after every dispatched command; scheduled
// versus actual dispatch time is the figure of merit for the whole
// system, and a post-run query shows how the schedule held up through
// totality. The write is non-blocking; data is batched and sent
// asynchronously, so a slow or absent InfluxDB never delays a capture.
//
// Parameters:
//   - kind: Command kind tag ("PICT" or "PLAY")
//   - scheduled: The time the command was due
//   - dispatched: The time it actually went out
func (c *Client) RecordDispatch(kind string, scheduled, dispatched time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"kind": kind,
		},
		map[string]interface{}{
			"latency_ms": float64(dispatched.Sub(scheduled).Microseconds()) / 1000.0,
		},
		dispatched,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
