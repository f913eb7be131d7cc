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

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gyro2d/internal/app"
	"github.com/relabs-tech/gyro2d/internal/config"
	"github.com/relabs-tech/gyro2d/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "imu_producer",
	Short: "Publish raw MPU9250 samples to MQTT",
	Long: `Reads accelerometer and gyroscope counts from an MPU9250 on SPI and
publishes them as JSON to the IMU topic, for the visualizer's mqtt source.
Needs access to the SPI device, usually root.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitGlobal(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg := config.Get()

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log, err := logging.New(level)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		return app.RunIMUProducer(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "./gyro2d_config.txt", "path to configuration file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
