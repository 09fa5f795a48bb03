package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/opsboard/dashboard-stream-service/config"
	"github.com/urfave/cli/v2"
)

const ServiceName = "dashboard-stream-service"

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Realtime event-processing and dashboard broadcast service",
		Commands: []*cli.Command{
			serverCmd(),
			monitorCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the stream server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			configFile := c.String("config_file")

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}

			config.WatchLogLevel(configFile, SetLogLevel)

			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			return app.Stop(context.Background())
		},
	}
}
