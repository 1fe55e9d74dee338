package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/urfave/cli/v2"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Terminal dashboard for a running gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Base URL of the gateway HTTP server",
				Value: "http://localhost:8080",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Refresh interval",
				Value: 2 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			return runMonitor(c.String("addr"), c.Duration("interval"))
		},
	}
}

func fetchStats(client *http.Client, addr string) (*model.HubStats, error) {
	resp, err := client.Get(addr + "/api/gateway/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats endpoint returned %d", resp.StatusCode)
	}

	stats := &model.HubStats{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func runMonitor(addr string, interval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: init terminal: %w", err)
	}
	defer ui.Close()

	summary := widgets.NewParagraph()
	summary.Title = " gateway "
	summary.SetRect(0, 0, 60, 7)

	destinations := widgets.NewTable()
	destinations.Title = " subscriptions per destination "
	destinations.SetRect(0, 7, 60, 20)
	destinations.RowSeparator = false

	client := &http.Client{Timeout: 5 * time.Second}

	render := func() {
		stats, err := fetchStats(client, addr)
		if err != nil {
			summary.Text = fmt.Sprintf("unreachable: %v", err)
			destinations.Rows = [][]string{{"destination", "sessions"}}
			ui.Render(summary, destinations)
			return
		}

		summary.Text = fmt.Sprintf(
			"sessions:       %d\nsubscriptions:  %d\ndropped frames: %d\nuptime:         %s",
			stats.TotalSessions,
			stats.TotalSubscriptions,
			stats.DroppedFrames,
			stats.Uptime.Round(time.Second),
		)

		rows := [][]string{{"destination", "sessions"}}
		names := make([]string, 0, len(stats.Destinations))
		for name := range stats.Destinations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, []string{name, fmt.Sprintf("%d", stats.Destinations[name])})
		}
		destinations.Rows = rows

		ui.Render(summary, destinations)
	}

	render()

	events := ui.PollEvents()
	ticker := time.NewTicker(interval)
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
