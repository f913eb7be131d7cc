// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/imu"
)

// MQTTSource subscribes to raw IMU samples published by imu_producer and
// turns each message into one reading per sensor.
type MQTTSource struct {
	Broker   string
	ClientID string
	Topic    string
	Ranges   imu.Ranges
	Logger   *zap.Logger
}

func (s *MQTTSource) Run(ctx context.Context, out chan<- Reading) error {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID(s.ClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt source: connect %s: %w", s.Broker, token.Error())
	}
	defer client.Disconnect(250)
	log.Info("mqtt source: connected", zap.String("broker", s.Broker))

	timeline := &Timeline{}
	token := client.Subscribe(s.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		readings, err := DecodeIMURaw(msg.Payload(), s.Ranges, timeline, time.Now())
		if err != nil {
			log.Warn("mqtt source: dropping payload", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		for _, r := range readings {
			if emit(ctx, out, r) != nil {
				return
			}
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt source: subscribe %s: %w", s.Topic, token.Error())
	}
	log.Info("mqtt source: subscribed", zap.String("topic", s.Topic))

	<-ctx.Done()
	return ctx.Err()
}

// DecodeIMURaw converts one JSON imu.IMURaw payload into gyro, accel and
// mag readings stamped in local time: the producer's time_ms goes through
// tl, or received is used as is when tl is nil. A zero magnetometer means
// the producer had no magnetometer and yields no mag reading.
func DecodeIMURaw(payload []byte, ranges imu.Ranges, tl *Timeline, received time.Time) ([]Reading, error) {
	var raw imu.IMURaw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal imu sample: %w", err)
	}

	at := received
	if tl != nil {
		at = tl.Stamp(raw.TimeMS, received)
	}

	readings := make([]Reading, 0, 3)

	gx, gy, gz := ranges.GyroRadS(raw.Gx, raw.Gy, raw.Gz)
	readings = append(readings, Reading{Kind: Gyro, X: gx, Y: gy, Z: gz, At: at})

	ax, ay, az := ranges.AccelMS2(raw.Ax, raw.Ay, raw.Az)
	readings = append(readings, Reading{Kind: Accel, X: ax, Y: ay, Z: az, At: at})

	if raw.Mx != 0 || raw.My != 0 || raw.Mz != 0 {
		mx, my, mz := imu.Mag(raw.Mx, raw.My, raw.Mz)
		readings = append(readings, Reading{Kind: Mag, X: mx, Y: my, Z: mz, At: at})
	}
	return readings, nil
}
