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

	"github.com/relabs-tech/gyro2d/internal/orientation"
)

// OrientationMessage is the retained payload on the orientation topic.
type OrientationMessage struct {
	orientation.State
	YawDeg float64 `json:"yaw_deg"`
	TimeMS int64   `json:"time_ms"`
}

// Publisher is the subset of an MQTT client used to publish frames.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publish sends the orientation of every frame to MQTT, at most once per
// interval.
type Publish struct {
	client   Publisher
	topic    string
	interval time.Duration
	log      *zap.Logger
	lastSent time.Time
	sent     bool
}

// NewPublish wraps an already connected client.
func NewPublish(client Publisher, topic string, interval time.Duration, log *zap.Logger) *Publish {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publish{client: client, topic: topic, interval: interval, log: log}
}

// ConnectPublish connects to the broker and returns a publish sink that
// disconnects on Close.
func ConnectPublish(broker, clientID, topic string, interval time.Duration, log *zap.Logger) (*Publish, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", broker, token.Error())
	}
	if log != nil {
		log.Info("publish: connected to MQTT", zap.String("broker", broker), zap.String("topic", topic))
	}
	return NewPublish(client, topic, interval, log), nil
}

func (p *Publish) Present(_ context.Context, f Frame) error {
	if p.sent && f.At.Sub(p.lastSent) < p.interval {
		return nil
	}

	payload, err := orientationPayload(f.Scene.Orientation, f.At)
	if err != nil {
		return fmt.Errorf("publish: frame %d: %w", f.Seq, err)
	}

	// Retained so late subscribers get the last orientation. The token is
	// not waited on to keep the loop off the network.
	token := p.client.Publish(p.topic, 0, true, payload)
	if token.Error() != nil {
		return fmt.Errorf("publish: %s: %w", p.topic, token.Error())
	}
	p.lastSent = f.At
	p.sent = true
	return nil
}

func (p *Publish) Close() error {
	if c, ok := p.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}

func orientationPayload(st orientation.State, at time.Time) ([]byte, error) {
	return json.Marshal(OrientationMessage{
		State:  st,
		YawDeg: st.YawDegrees(),
		TimeMS: at.UnixMilli(),
	})
}
