// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/config"
	"github.com/relabs-tech/gyro2d/internal/imu"
)

// RunWatch prints every raw IMU sample and published orientation seen on
// the broker until ctx is done.
func RunWatch(ctx context.Context, cfg *config.Config, log *zap.Logger, w io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(config.ClientID("", "watch"))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("watch: connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	log.Info("watch: connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))

	var mu sync.Mutex
	printLine := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, line)
	}

	subs := map[string]func([]byte) (string, error){
		cfg.TopicIMU:         formatIMU,
		cfg.TopicOrientation: formatOrientation,
	}
	for topic, format := range subs {
		format := format
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := format(msg.Payload())
			if err != nil {
				log.Warn("watch: bad payload", zap.String("topic", msg.Topic()), zap.Error(err))
				return
			}
			printLine(line)
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("watch: subscribe %s: %w", topic, token.Error())
		}
		log.Info("watch: subscribed", zap.String("topic", topic))
	}

	<-ctx.Done()
	log.Info("watch: shutting down")
	return nil
}

func formatIMU(payload []byte) (string, error) {
	var s imu.IMURaw
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", err
	}
	return fmt.Sprintf("[IMU ] %-6s ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  mx=%6d my=%6d mz=%6d",
		s.Source, s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, s.Mx, s.My, s.Mz), nil
}

func formatOrientation(payload []byte) (string, error) {
	var m OrientationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", err
	}
	return fmt.Sprintf("[ORNT] X=%6.3f  Y=%6.3f  Z=%8.3f  YAW=%7.1f°",
		m.RotationX, m.RotationY, m.RotationZ, m.YawDeg), nil
}
