// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/config"
	"github.com/relabs-tech/gyro2d/internal/imu"
	"github.com/relabs-tech/gyro2d/internal/sensors"
)

// producerLogEvery is how many samples pass between info log lines.
const producerLogEvery = 250

// RunIMUProducer reads the MPU9250 and publishes raw samples to MQTT until
// ctx is done.
func RunIMUProducer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting IMU producer",
		zap.String("spi", cfg.IMUSPIDevice),
		zap.String("cs", cfg.IMUCSPin),
		zap.String("topic", cfg.TopicIMU))

	dev, err := sensors.NewMPU9250(sensors.MPU9250Config{
		Name:      "imu",
		SPIDevice: cfg.IMUSPIDevice,
		CSPin:     cfg.IMUCSPin,
		Ranges:    imu.Ranges{Accel: cfg.IMUAccelRange, Gyro: cfg.IMUGyroRange},
	}, log)
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(config.ClientID(cfg.MQTTClientIDProducer, "producer")).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("producer: MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	log.Info("connected to MQTT, starting publish loop", zap.String("broker", cfg.MQTTBroker))

	ticker := time.NewTicker(millis(cfg.IMUSampleInterval))
	defer ticker.Stop()
	return ProduceIMU(ctx, dev, client, cfg.TopicIMU, ticker.C, log)
}

// ProduceIMU publishes one sample from src per tick. Read and publish
// errors are logged and the tick is skipped.
func ProduceIMU(ctx context.Context, src imu.IMURawSource, pub Publisher, topic string, ticks <-chan time.Time, log *zap.Logger) error {
	var published uint64
	for {
		select {
		case <-ctx.Done():
			log.Info("IMU producer stopped", zap.Uint64("published", published))
			return nil
		case <-ticks:
		}

		raw, err := src.NextRaw()
		if err != nil {
			log.Warn("IMU read error", zap.Error(err))
			continue
		}

		payload, err := json.Marshal(raw)
		if err != nil {
			log.Warn("IMU marshal error", zap.Error(err))
			continue
		}

		if token := pub.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Warn("MQTT publish error", zap.String("topic", topic), zap.Error(token.Error()))
			continue
		}

		published++
		if published%producerLogEvery == 0 {
			log.Info("IMU sample",
				zap.Uint64("published", published),
				zap.Int16s("accel", []int16{raw.Ax, raw.Ay, raw.Az}),
				zap.Int16s("gyro", []int16{raw.Gx, raw.Gy, raw.Gz}))
		}
	}
}
