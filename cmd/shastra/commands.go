package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/ExclusiveAccount/shastra-shield/pkg/advisor"
	"github.com/ExclusiveAccount/shastra-shield/pkg/alerts"
	"github.com/ExclusiveAccount/shastra-shield/pkg/api"
	"github.com/ExclusiveAccount/shastra-shield/pkg/drill"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
)

// commandServe returns the dashboard server command
func commandServe() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"dashboard"},
		Usage:   "Start the web dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Dashboard port (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "cors",
				Usage: "Allow cross-origin clients",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.String("port")
			}
			if c.Bool("cors") {
				cfg.EnableCORS = true
			}

			printBanner()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var drillOpts []drill.Option
			if cfg.AlertsEnabled() {
				publisher, err := alerts.NewPublisher(alerts.PublisherConfig{
					Broker:   cfg.MQTTBroker,
					ClientID: cfg.MQTTClientID,
					Topic:    cfg.MQTTTopic,
				}, log)
				if err != nil {
					log.Warnf("Alert publishing disabled: %v", err)
				} else {
					defer publisher.Close()
					drillOpts = append(drillOpts, drill.WithSink(publisher))
				}
			}

			server := api.NewServer(cfg, log,
				api.WithAdvisor(advisor.NewFromConfig(ctx, cfg, log)),
				api.WithDrillSimulator(drill.NewSimulator(cfg.Simulation, log, drillOpts...)),
			)

			go server.SweepSessions(ctx)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()
			color.Green("Dashboard API running at http://localhost:%s/api", cfg.Port)
			color.Green("Press Ctrl+C to stop the server")

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("Shutting down dashboard server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

// commandInventory prints the seed device inventory
func commandInventory() *cli.Command {
	return &cli.Command{
		Name:    "inventory",
		Aliases: []string{"ls"},
		Usage:   "List the seed device inventory",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			devices := session.New(cfg.Simulation).Devices()
			if len(devices) == 0 {
				fmt.Println("No devices found.")
				return nil
			}

			color.Cyan("IOT INVENTORY")
			printDevices(devices)
			return nil
		},
	}
}

func printDevices(devices []models.Device) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tTYPE\tIP ADDRESS\tSTATUS\tANOMALY\tCRITICALITY")
	fmt.Fprintln(w, "--\t----\t----\t----------\t------\t-------\t-----------")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\n",
			d.ID, d.Name, d.Type, d.IP, d.Status, d.Anomaly, d.Criticality)
	}
}

// commandDrill runs one security drill against a throwaway session
func commandDrill() *cli.Command {
	return &cli.Command{
		Name:  "drill",
		Usage: "Run a security drill and print the recorded threat",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "identity",
				Value: "cli",
				Usage: "Agent identity for the drill session",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Override the simulated attack duration",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("delay") {
				cfg.Simulation.DrillDelay = c.Duration("delay")
			}

			sess := session.New(cfg.Simulation)
			if err := sess.Authenticate(c.String("identity"), "local"); err != nil {
				return err
			}

			color.Yellow("Simulating attack vector...")
			result, err := drill.NewSimulator(cfg.Simulation, log).Run(sess)
			if err != nil {
				return err
			}

			color.Red("%s", result.Notification)
			ev := result.Event
			fmt.Printf("%s  %s @ %s  Auto-%s\n", ev.Time, ev.Type, ev.Target, ev.Status)
			if ev.Vector != "" {
				fmt.Printf("Vector: %s\n", ev.Vector)
			}
			return nil
		},
	}
}

// commandExplain asks the text advisor about a threat
func commandExplain() *cli.Command {
	return &cli.Command{
		Name:  "explain",
		Usage: "Explain a threat with the text advisor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "threat",
				Value: "Brute Force",
				Usage: "Threat type",
			},
			&cli.StringFlag{
				Name:  "device",
				Value: "Backyard Cam",
				Usage: "Target device name",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			a := advisor.NewFromConfig(c.Context, cfg, log)
			fmt.Println(a.ExplainText(c.Context, c.String("threat"), c.String("device")))
			return nil
		},
	}
}
