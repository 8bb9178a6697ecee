// Package metrics holds the process wide Prometheus collectors. They are
// registered on the default registry so the HTTP layer only needs to expose
// promhttp.Handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherlight_frames_sent_total",
		Help: "HID reports written to the busylight, by protocol layout.",
	}, []string{"protocol"})

	WriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weatherlight_write_failures_total",
		Help: "HID writes that failed and marked the device disconnected.",
	})

	Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherlight_reconnects_total",
		Help: "Device discovery attempts after startup, by result.",
	}, []string{"result"})

	WeatherFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherlight_weather_fetches_total",
		Help: "Weather provider requests, by provider and result.",
	}, []string{"provider", "result"})
)
