// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gyro2d/internal/config"
	"github.com/relabs-tech/gyro2d/internal/imu"
	"github.com/relabs-tech/gyro2d/internal/render"
	"github.com/relabs-tech/gyro2d/internal/sensors"
)

// consoleRefresh is how often the terminal console redraws.
const consoleRefresh = 100 * time.Millisecond

// viewerMinInterval caps the browser frame rate.
const viewerMinInterval = 33 * time.Millisecond

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// NewSource builds the sensor source selected in cfg.
func NewSource(cfg *config.Config, log *zap.Logger) (sensors.Source, error) {
	switch cfg.Source {
	case config.SourceMock:
		return sensors.NewMockSource(millis(cfg.MockInterval)), nil
	case config.SourceMQTT:
		return &sensors.MQTTSource{
			Broker:   cfg.MQTTBroker,
			ClientID: config.ClientID(cfg.MQTTClientIDVisualizer, "visualizer"),
			Topic:    cfg.TopicIMU,
			Ranges:   imu.Ranges{Accel: cfg.IMUAccelRange, Gyro: cfg.IMUGyroRange},
			Logger:   log.Named("mqtt"),
		}, nil
	case config.SourceNMEA:
		return &sensors.NMEASource{
			PortName:      cfg.NMEASerialPort,
			BaudRate:      cfg.NMEABaudRate,
			FieldStrength: cfg.NMEAFieldStrength,
			Logger:        log.Named("nmea"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// RunVisualizer runs the source, the loop and every enabled sink until ctx
// is done, a component fails or the console is quit.
func RunVisualizer(ctx context.Context, cfg *config.Config, log *zap.Logger, consoleOpts ...tea.ProgramOption) error {
	src, err := NewSource(cfg, log)
	if err != nil {
		return err
	}

	loop := NewLoop(NewVisualizer(time.Now()), render.NewRenderer(cfg.FrameWidth, cfg.FrameHeight), log.Named("loop"))

	var (
		sinks   []Sink
		runners []func(context.Context) error
	)
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				log.Warn("sink close failed", zap.Error(err))
			}
		}
	}()

	if cfg.WebServerPort > 0 {
		viewer := NewViewer(fmt.Sprintf(":%d", cfg.WebServerPort), viewerMinInterval, loop.Touches(), log.Named("viewer"))
		sinks = append(sinks, viewer)
		runners = append(runners, viewer.Serve)
	}

	if cfg.DisplayEnable {
		display, err := NewDisplay(cfg.DisplayI2CBus, millis(cfg.DisplayUpdateInterval), log.Named("display"))
		if err != nil {
			// The visualizer stays useful without the panel.
			log.Warn("display disabled", zap.Error(err))
		} else {
			sinks = append(sinks, display)
		}
	}

	if cfg.SnapshotPath != "" {
		sinks = append(sinks, NewSnapshot(cfg.SnapshotPath, millis(cfg.SnapshotInterval), log.Named("snapshot")))
	}

	if cfg.PublishInterval > 0 {
		clientID := publisherClientID(cfg.MQTTClientIDVisualizer)
		pub, err := ConnectPublish(cfg.MQTTBroker, clientID, cfg.TopicOrientation, millis(cfg.PublishInterval), log.Named("publish"))
		if err != nil {
			return err
		}
		sinks = append(sinks, pub)
	}

	if cfg.ConsoleEnable {
		console := NewConsole(consoleRefresh, consoleOpts...)
		sinks = append(sinks, console)
		runners = append(runners, console.Run)
	}

	loop.Attach(sinks...)

	log.Info("visualizer starting",
		zap.String("source", cfg.Source),
		zap.Int("sinks", len(sinks)),
		zap.Int("width", cfg.FrameWidth),
		zap.Int("height", cfg.FrameHeight))

	g, gctx := errgroup.WithContext(ctx)
	for _, run := range runners {
		run := run
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error { return src.Run(gctx, loop.Readings()) })

	ticker := time.NewTicker(millis(cfg.FrameInterval))
	defer ticker.Stop()
	g.Go(func() error { return loop.Run(gctx, ticker.C) })

	err = g.Wait()
	if errors.Is(err, ErrConsoleQuit) || ctx.Err() != nil {
		log.Info("visualizer stopped")
		return nil
	}
	return err
}

// RunSnapshot runs the visualizer headless for d and writes the last frame
// to path.
func RunSnapshot(ctx context.Context, cfg *config.Config, log *zap.Logger, path string, d time.Duration) error {
	src, err := NewSource(cfg, log)
	if err != nil {
		return err
	}

	last := &lastFrame{}
	loop := NewLoop(NewVisualizer(time.Now()), render.NewRenderer(cfg.FrameWidth, cfg.FrameHeight), log.Named("loop"), last)

	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return src.Run(gctx, loop.Readings()) })

	ticker := time.NewTicker(millis(cfg.FrameInterval))
	defer ticker.Stop()
	g.Go(func() error { return loop.Run(gctx, ticker.C) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if last.frame.Image == nil {
		return fmt.Errorf("snapshot: no frame rendered in %s", d)
	}
	if err := WritePNG(path, last.frame.Image); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Info("snapshot written",
		zap.String("path", path),
		zap.Uint64("frame", last.frame.Seq),
		zap.String("status", last.frame.Scene.Status))
	return nil
}

// lastFrame keeps the most recent frame. It is only read after the loop
// has returned.
type lastFrame struct {
	frame Frame
}

func (l *lastFrame) Present(_ context.Context, f Frame) error {
	l.frame = f
	return nil
}

func (l *lastFrame) Close() error {
	return nil
}

func publisherClientID(visualizerID string) string {
	if visualizerID == "" {
		return config.ClientID("", "publisher")
	}
	return visualizerID + "-pub"
}
