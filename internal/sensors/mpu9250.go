// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyro2d/internal/imu"
)

// MPU9250Config selects the SPI device and full-scale ranges.
type MPU9250Config struct {
	Name      string // used as IMURaw.Source and in logs
	SPIDevice string
	CSPin     string
	Ranges    imu.Ranges
}

// MPU9250 reads raw accelerometer and gyroscope counts over SPI.
type MPU9250 struct {
	name string
	dev  *mpu9250.MPU9250
	now  func() time.Time
}

var _ imu.IMURawSource = (*MPU9250)(nil)

// NewMPU9250 initializes, self-tests and calibrates the device.
func NewMPU9250(cfg MPU9250Config, log *zap.Logger) (*MPU9250, error) {
	if log == nil {
		log = zap.NewNop()
	}
	name := cfg.Name

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, cfg.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(cfg.Ranges.Accel); err != nil {
		return nil, fmt.Errorf("%s IMU: set accel range: %w", name, err)
	}
	if err := dev.SetGyroRange(cfg.Ranges.Gyro); err != nil {
		return nil, fmt.Errorf("%s IMU: set gyro range: %w", name, err)
	}
	log.Info("IMU ranges set",
		zap.String("imu", name),
		zap.Float64("accel_lsb_per_g", cfg.Ranges.AccelLSBPerG()),
		zap.Float64("gyro_lsb_per_dps", cfg.Ranges.GyroLSBPerDPS()))

	// Self-test and calibration failures leave a usable but less accurate
	// device.
	if _, err := dev.SelfTest(); err != nil {
		log.Warn("IMU self-test failed", zap.String("imu", name), zap.Error(err))
	}
	if err := dev.Calibrate(); err != nil {
		log.Warn("IMU calibration failed", zap.String("imu", name), zap.Error(err))
	} else {
		log.Info("IMU calibration complete", zap.String("imu", name))
	}

	return &MPU9250{name: name, dev: dev, now: time.Now}, nil
}

// NextRaw reads accelerometer and gyroscope data. The MPU9250 driver does
// not expose the AK8963, so magnetometer fields stay zero.
func (s *MPU9250) NextRaw() (imu.IMURaw, error) {
	raw := imu.IMURaw{Source: s.name}
	reads := []struct {
		dst  *int16
		what string
		get  func() (int16, error)
	}{
		{&raw.Ax, "accel X", s.dev.GetAccelerationX},
		{&raw.Ay, "accel Y", s.dev.GetAccelerationY},
		{&raw.Az, "accel Z", s.dev.GetAccelerationZ},
		{&raw.Gx, "gyro X", s.dev.GetRotationX},
		{&raw.Gy, "gyro Y", s.dev.GetRotationY},
		{&raw.Gz, "gyro Z", s.dev.GetRotationZ},
	}
	for _, r := range reads {
		v, err := r.get()
		if err != nil {
			return imu.IMURaw{}, fmt.Errorf("%s IMU %s: %w", s.name, r.what, err)
		}
		*r.dst = v
	}
	raw.TimeMS = s.now().UnixMilli()
	return raw, nil
}
