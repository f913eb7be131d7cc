// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "math"

// IMURaw represents a single raw IMU+mag sample as published on MQTT.
type IMURaw struct {
	Source string `json:"source"`
	TimeMS int64  `json:"time_ms"` // unix milliseconds at read time

	Ax int16 `json:"ax"` // accel counts
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro counts
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Mx int16 `json:"mx"` // magnetometer, µT×10
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

type IMURawSource interface {
	NextRaw() (IMURaw, error)
}

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Ranges holds the MPU9250 full-scale selections the counts were read with.
// Accel: 0=±2g, 1=±4g, 2=±8g, 3=±16g. Gyro: 0=±250°/s ... 3=±2000°/s.
type Ranges struct {
	Accel byte
	Gyro  byte
}

// AccelLSBPerG is the accelerometer sensitivity for the range.
func (r Ranges) AccelLSBPerG() float64 {
	return 16384.0 / float64(uint(1)<<(r.Accel&3))
}

// GyroLSBPerDPS is the gyroscope sensitivity for the range.
func (r Ranges) GyroLSBPerDPS() float64 {
	return 131.0 / float64(uint(1)<<(r.Gyro&3))
}

// AccelMS2 converts counts to m/s².
func (r Ranges) AccelMS2(x, y, z int16) (float64, float64, float64) {
	k := StandardGravity / r.AccelLSBPerG()
	return float64(x) * k, float64(y) * k, float64(z) * k
}

// GyroRadS converts counts to rad/s.
func (r Ranges) GyroRadS(x, y, z int16) (float64, float64, float64) {
	k := math.Pi / 180 / r.GyroLSBPerDPS()
	return float64(x) * k, float64(y) * k, float64(z) * k
}

// Mag converts µT×10 counts to µT.
func Mag(x, y, z int16) (float64, float64, float64) {
	return float64(x) / 10, float64(y) / 10, float64(z) / 10
}
