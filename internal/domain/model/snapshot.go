package model

import "time"

// DailyFigures are the raw aggregates an external analytics collaborator
// computes from persisted business records for a single day.
type DailyFigures struct {
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`
}

// Performer is one entry of the "top performers" board.
type Performer struct {
	StaffID int64   `json:"staff_id"`
	Name    string  `json:"name"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// TrendPoint is one sample of the short-horizon revenue trend.
type TrendPoint struct {
	At      time.Time `json:"at"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// DashboardSnapshot is an immutable point-in-time aggregate view.
// It is constructed fresh on every cache miss and never mutated after.
type DashboardSnapshot struct {
	RevenueToday      float64      `json:"revenue_today"`
	OrdersToday       int          `json:"orders_today"`
	CustomersToday    int          `json:"customers_today"`
	RevenueGrowth     float64      `json:"revenue_growth"`
	OrdersGrowth      float64      `json:"orders_growth"`
	CustomersGrowth   float64      `json:"customers_growth"`
	AverageOrderValue float64      `json:"average_order_value"`
	TopPerformers     []Performer  `json:"top_performers"`
	Trend             []TrendPoint `json:"trend"`
	ActiveAlerts      int          `json:"active_alerts"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// RealtimeMetric is a single named figure, independent of the full snapshot.
type RealtimeMetric struct {
	Name             string         `json:"name"`
	Value            float64        `json:"value"`
	Timestamp        time.Time      `json:"timestamp"`
	PreviousValue    float64        `json:"previous_value"`
	ChangePercentage float64        `json:"change_percentage"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Alert is a pushed notification for the alerts channel.
type Alert struct {
	Name           string    `json:"name"`
	Message        string    `json:"message"`
	MetricName     string    `json:"metric_name,omitempty"`
	CurrentValue   float64   `json:"current_value,omitempty"`
	ThresholdValue float64   `json:"threshold_value,omitempty"`
	Severity       string    `json:"severity"`
	SourceService  string    `json:"source_service,omitempty"`
	RaisedAt       time.Time `json:"raised_at"`
}
