package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
)

const (
	appName    = "ShastraShield AI"
	appVersion = "0.3.0"
)

var log = logrus.New()

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "shastra",
		Usage:   "Simulated autonomous IoT security dashboard",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.json",
				Usage:   "Load configuration from `FILE` when it exists",
				EnvVars: []string{"SHASTRA_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SHASTRA_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				level = logrus.InfoLevel
			}
			if c.Bool("verbose") {
				level = logrus.DebugLevel
			}
			log.SetLevel(level)

			log.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})

			return nil
		},
		Commands: []*cli.Command{
			commandServe(),
			commandInventory(),
			commandDrill(),
			commandExplain(),
		},
	}
}

// loadConfig reads the optional config file and overlays the environment
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()

	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.LoadConfigFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		log.WithField("file", path).Debug("Loaded configuration file")
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	cfg.ApplyEnv()
	cfg.Verbose = c.Bool("verbose")
	return cfg, nil
}

func printBanner() {
	color.HiYellow("\n=== %s ===", appName)
	color.HiBlack("AUTONOMOUS SECURITY AGENT\n")
}
