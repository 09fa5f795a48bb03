package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"github.com/urfave/cli/v2"
)

// monitorCmd is a terminal viewer over the /status surface, handy when
// poking at a running node without a browser.
func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Terminal status viewer for a running node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "http://127.0.0.1:8087",
				Usage: "Base URL of the node to watch",
			},
		},
		Action: func(c *cli.Context) error {
			return runMonitor(c.String("addr"))
		},
	}
}

func runMonitor(addr string) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: init terminal: %w", err)
	}
	defer ui.Close()

	summary := widgets.NewParagraph()
	summary.Title = "dashboard-stream-service"
	summary.SetRect(0, 0, 60, 12)

	throughput := widgets.NewSparkline()
	throughput.LineColor = ui.ColorGreen
	throughputGroup := widgets.NewSparklineGroup(throughput)
	throughputGroup.Title = "events/min"
	throughputGroup.SetRect(0, 12, 60, 18)

	client := &http.Client{Timeout: 2 * time.Second}
	var samples []float64

	render := func() {
		status, err := fetchStatus(client, addr)
		if err != nil {
			summary.Text = fmt.Sprintf("unreachable: %v", err)
			ui.Render(summary, throughputGroup)
			return
		}

		samples = append(samples, float64(status.Events.EventsPerMinute))
		if len(samples) > 58 {
			samples = samples[len(samples)-58:]
		}
		throughput.Data = samples

		summary.Text = formatStatus(status)
		ui.Render(summary, throughputGroup)
	}

	render()

	events := ui.PollEvents()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			if e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>") {
				return nil
			}
		case <-ticker.C:
			render()
		}
	}
}

func fetchStatus(client *http.Client, addr string) (*model.ServiceStatus, error) {
	resp, err := client.Get(addr + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status model.ServiceStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func formatStatus(s *model.ServiceStatus) string {
	metricNames := make([]string, 0, len(s.Connections.MetricSubscribers))
	for name := range s.Connections.MetricSubscribers {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	text := fmt.Sprintf(
		"connections: %d\n dashboard subs: %d\n alert subs: %d\n\nprocessed: %d  failed: %d\nrate limited: %d\navg handler: %.2f ms\nhandlers: %d\n",
		s.Connections.TotalConnections,
		s.Connections.DashboardSubscribers,
		s.Connections.AlertSubscribers,
		s.Events.TotalProcessed,
		s.Events.Failed,
		s.Events.RateLimited,
		s.Events.AvgProcessingTimeMS,
		s.Events.ActiveHandlerCount,
	)
	for _, name := range metricNames {
		text += fmt.Sprintf(" metric %s: %d subs\n", name, s.Connections.MetricSubscribers[name])
	}
	return text
}
