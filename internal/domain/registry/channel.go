package registry

import "strings"

// Channel identifies one logical broadcast stream. Metric channels are
// namespaced per metric name ("metric:revenue_current").
type Channel string

const (
	ChannelDashboard Channel = "dashboard"
	ChannelAlerts    Channel = "alerts"

	metricPrefix = "metric:"
)

// Permissions required to join each channel. Resolution of the permission
// set itself happens outside this service; the registry only enforces it.
const (
	PermDashboardView = "dashboard:view"
	PermMetricsView   = "metrics:view"
	PermAlertsReceive = "alerts:receive"
)

func MetricChannel(name string) Channel {
	return Channel(metricPrefix + name)
}

func (c Channel) IsMetric() bool {
	return strings.HasPrefix(string(c), metricPrefix)
}

// MetricName returns the metric a metric channel carries, or "".
func (c Channel) MetricName() string {
	if !c.IsMetric() {
		return ""
	}
	return strings.TrimPrefix(string(c), metricPrefix)
}

// RequiredPermission maps a channel to the permission a connection must hold
// to subscribe to it or to receive broadcasts from it.
func (c Channel) RequiredPermission() string {
	switch {
	case c == ChannelDashboard:
		return PermDashboardView
	case c == ChannelAlerts:
		return PermAlertsReceive
	case c.IsMetric():
		return PermMetricsView
	default:
		return ""
	}
}

// Known reports whether the channel maps to a permission, i.e. whether a
// subscription to it can ever be granted.
func (c Channel) Known() bool {
	return c.RequiredPermission() != ""
}
