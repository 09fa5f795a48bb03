package model

import "time"

// HubStats is the read-only view of the connection registry for health checks.
type HubStats struct {
	TotalConnections     int            `json:"total_connections"`
	DashboardSubscribers int            `json:"dashboard_subscribers"`
	AlertSubscribers     int            `json:"alert_subscribers"`
	MetricSubscribers    map[string]int `json:"metric_subscribers"`
	Uptime               time.Duration  `json:"uptime"`
}

// EventStats mirrors the worker pool counters for the status surface.
type EventStats struct {
	TotalProcessed      uint64  `json:"total_processed"`
	Failed              uint64  `json:"failed"`
	RateLimited         uint64  `json:"rate_limited"`
	EventsPerMinute     uint64  `json:"events_per_minute"`
	AvgProcessingTimeMS float64 `json:"avg_processing_time_ms"`
	ActiveHandlerCount  int     `json:"active_handler_count"`
}

// ServiceStatus is the full read-only status surface.
type ServiceStatus struct {
	Connections HubStats   `json:"connections"`
	Events      EventStats `json:"events"`
}
