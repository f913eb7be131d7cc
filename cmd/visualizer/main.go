// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/app"
	"github.com/relabs-tech/gyro2d/internal/config"
	"github.com/relabs-tech/gyro2d/internal/logging"
)

var (
	configPath string
	source     string
	verbose    bool

	snapshotOut      string
	snapshotDuration time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "visualizer",
	Short: "Draw gyroscope, accelerometer and compass readings as a 2D scene",
	Long: `Integrates gyroscope rates into a tilt and yaw, and renders them with the
accelerometer vector, a compass needle and the two-finger touch line.
Frames are served to browsers on the web viewer and optionally mirrored
on an SSD1306, a PNG snapshot, MQTT and a terminal console.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup("")
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		return app.RunVisualizer(cmd.Context(), cfg, log)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run headless for a while and write the last frame as PNG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup("")
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		return app.RunSnapshot(cmd.Context(), cfg, log, snapshotOut, snapshotDuration)
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Show live values in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would tear the TUI.
		cfg, log, err := setup("error")
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		cfg.ConsoleEnable = true
		return app.RunVisualizer(cmd.Context(), cfg, log)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print raw IMU samples and published orientation from MQTT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup("")
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		return app.RunWatch(cmd.Context(), cfg, log, cmd.OutOrStdout())
	},
}

// setup loads the configuration, applies flag overrides and builds the
// logger. A non-empty level overrides the configured one unless verbose.
func setup(level string) (*config.Config, *zap.Logger, error) {
	if configPath == "" {
		config.InitGlobalDefault()
	} else if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()

	if source != "" {
		cfg.Source = source
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid --source: %w", err)
		}
	}

	if level == "" {
		level = cfg.LogLevel
	}
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (KEY=VALUE, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "sensor source: mock, mqtt or nmea (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "gyro2d.png", "output PNG file")
	snapshotCmd.Flags().DurationVarP(&snapshotDuration, "duration", "d", 2*time.Second, "how long to run before writing")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
