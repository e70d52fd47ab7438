package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections counts live websocket sessions.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pointdeck_ws_connections",
		Help: "Number of live websocket connections.",
	})

	// CommandsTotal counts inbound commands by type, including the
	// malformed ones rejected at the boundary.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointdeck_ws_commands_total",
		Help: "Inbound commands processed, by type.",
	}, []string{"type"})

	// FramesDropped counts outbound frames dropped either because a
	// newer snapshot superseded them or because a client stalled.
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointdeck_ws_frames_dropped_total",
		Help: "Outbound frames dropped, by reason.",
	}, []string{"reason"})
)

// RegisterRoomGauge exposes the live room count from the store.
func RegisterRoomGauge(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pointdeck_rooms_open",
		Help: "Number of rooms currently held in memory.",
	}, func() float64 { return float64(count()) })
}
