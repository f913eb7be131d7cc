// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Sensor source backends.
const (
	SourceMock = "mock"
	SourceMQTT = "mqtt"
	SourceNMEA = "nmea"
)

// Config holds all application configuration values. The yaml tags match
// the lower-cased KEY=VALUE names.
type Config struct {
	// Source
	Source       string `yaml:"source"`
	MockInterval int    `yaml:"mock_interval"` // milliseconds

	// MQTT
	MQTTBroker             string `yaml:"mqtt_broker"`
	MQTTClientIDVisualizer string `yaml:"mqtt_client_id_visualizer"`
	MQTTClientIDProducer   string `yaml:"mqtt_client_id_producer"`

	// Topics
	TopicIMU         string `yaml:"topic_imu"`
	TopicOrientation string `yaml:"topic_orientation"`

	// IMU Hardware (producer only)
	IMUSPIDevice string `yaml:"imu_spi_device"`
	IMUCSPin     string `yaml:"imu_cs_pin"`

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte `yaml:"imu_accel_range"`
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte `yaml:"imu_gyro_range"`

	IMUSampleInterval int `yaml:"imu_sample_interval"` // milliseconds

	// NMEA compass / rate-of-turn sensor
	NMEASerialPort    string  `yaml:"nmea_serial_port"`
	NMEABaudRate      int     `yaml:"nmea_baud_rate"`
	NMEAFieldStrength float64 `yaml:"nmea_field_strength"` // µT used for heading-only magnetometer

	// Frame
	FrameWidth    int `yaml:"frame_width"`
	FrameHeight   int `yaml:"frame_height"`
	FrameInterval int `yaml:"frame_interval"` // milliseconds

	// Web viewer, 0 disables
	WebServerPort int `yaml:"web_server_port"`

	// SSD1306 display
	DisplayEnable         bool   `yaml:"display_enable"`
	DisplayI2CBus         string `yaml:"display_i2c_bus"`
	DisplayUpdateInterval int    `yaml:"display_update_interval"` // milliseconds

	// PNG snapshot, empty path disables
	SnapshotPath     string `yaml:"snapshot_path"`
	SnapshotInterval int    `yaml:"snapshot_interval"` // milliseconds

	// Orientation publish to MQTT, 0 disables
	PublishInterval int `yaml:"publish_interval"` // milliseconds

	// Terminal console
	ConsoleEnable bool `yaml:"console_enable"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Package-level singleton. Set once through InitGlobal, read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration that runs the mock source with the web
// viewer on port 8080.
func Default() *Config {
	return &Config{
		Source:       SourceMock,
		MockInterval: 20,

		MQTTBroker:       "tcp://localhost:1883",
		TopicIMU:         "gyro2d/imu",
		TopicOrientation: "gyro2d/orientation",

		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "8",
		IMUSampleInterval: 20,

		NMEABaudRate:      4800,
		NMEAFieldStrength: 40,

		FrameWidth:    720,
		FrameHeight:   1280,
		FrameInterval: 16,

		WebServerPort: 8080,

		DisplayUpdateInterval: 200,

		SnapshotInterval: 1000,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct. Files
// ending in .yaml or .yml are YAML; anything else is KEY=VALUE lines.
// Keys not present keep their Default value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.decodeYAML(file)
	default:
		err = cfg.decodeKeyValue(file)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid yaml config: %w", err)
	}
	return nil
}

func (c *Config) decodeKeyValue(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Source
	case "SOURCE":
		c.Source = strings.ToLower(value)
	case "MOCK_INTERVAL":
		c.MockInterval, err = atoi(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_VISUALIZER":
		c.MQTTClientIDVisualizer = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		var v int
		v, err = atoi(key, value)
		c.IMUAccelRange = byte(v)
	case "IMU_GYRO_RANGE":
		var v int
		v, err = atoi(key, value)
		c.IMUGyroRange = byte(v)
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = atoi(key, value)

	// NMEA
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		c.NMEABaudRate, err = atoi(key, value)
	case "NMEA_FIELD_STRENGTH":
		c.NMEAFieldStrength, err = strconv.ParseFloat(value, 64)
		if err != nil {
			err = fmt.Errorf("invalid %s %q: %w", key, value, err)
		}

	// Frame
	case "FRAME_WIDTH":
		c.FrameWidth, err = atoi(key, value)
	case "FRAME_HEIGHT":
		c.FrameHeight, err = atoi(key, value)
	case "FRAME_INTERVAL":
		c.FrameInterval, err = atoi(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoi(key, value)

	// Display
	case "DISPLAY_ENABLE":
		c.DisplayEnable, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoi(key, value)

	// Snapshot
	case "SNAPSHOT_PATH":
		c.SnapshotPath = value
	case "SNAPSHOT_INTERVAL":
		c.SnapshotInterval, err = atoi(key, value)

	// Publish
	case "PUBLISH_INTERVAL":
		c.PublishInterval, err = atoi(key, value)

	// Console
	case "CONSOLE_ENABLE":
		c.ConsoleEnable, err = parseBool(key, value)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// intBounds holds the inclusive range of every integer key.
var intBounds = map[string][2]int{
	"MOCK_INTERVAL":           {1, 60_000},
	"IMU_ACCEL_RANGE":         {0, 3},
	"IMU_GYRO_RANGE":          {0, 3},
	"IMU_SAMPLE_INTERVAL":     {1, 60_000},
	"NMEA_BAUD_RATE":          {1, 4_000_000},
	"FRAME_WIDTH":             {1, 8192},
	"FRAME_HEIGHT":            {1, 8192},
	"FRAME_INTERVAL":          {1, 10_000},
	"WEB_SERVER_PORT":         {0, 65535},
	"DISPLAY_UPDATE_INTERVAL": {1, 60_000},
	"SNAPSHOT_INTERVAL":       {1, 3_600_000},
	"PUBLISH_INTERVAL":        {0, 3_600_000},
}

func atoi(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, checkRange(key, v)
}

func checkRange(key string, v int) error {
	b := intBounds[key]
	if v < b[0] || v > b[1] {
		return fmt.Errorf("%s must be %d-%d, got %d", key, b[0], b[1], v)
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// Validate checks integer bounds and that the fields needed by the
// selected source and sinks are set. It applies to both file formats.
func (c *Config) Validate() error {
	ints := []struct {
		key string
		v   int
	}{
		{"MOCK_INTERVAL", c.MockInterval},
		{"IMU_ACCEL_RANGE", int(c.IMUAccelRange)},
		{"IMU_GYRO_RANGE", int(c.IMUGyroRange)},
		{"IMU_SAMPLE_INTERVAL", c.IMUSampleInterval},
		{"FRAME_WIDTH", c.FrameWidth},
		{"FRAME_HEIGHT", c.FrameHeight},
		{"FRAME_INTERVAL", c.FrameInterval},
		{"WEB_SERVER_PORT", c.WebServerPort},
		{"DISPLAY_UPDATE_INTERVAL", c.DisplayUpdateInterval},
		{"SNAPSHOT_INTERVAL", c.SnapshotInterval},
		{"PUBLISH_INTERVAL", c.PublishInterval},
	}
	for _, f := range ints {
		if err := checkRange(f.key, f.v); err != nil {
			return err
		}
	}

	switch c.Source {
	case SourceMock:
	case SourceMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required for source %q", c.Source)
		}
		if c.TopicIMU == "" {
			return fmt.Errorf("TOPIC_IMU is required for source %q", c.Source)
		}
	case SourceNMEA:
		if c.NMEASerialPort == "" {
			return fmt.Errorf("NMEA_SERIAL_PORT is required for source %q", c.Source)
		}
		if err := checkRange("NMEA_BAUD_RATE", c.NMEABaudRate); err != nil {
			return err
		}
	default:
		return fmt.Errorf("SOURCE must be one of %s, %s, %s, got %q", SourceMock, SourceMQTT, SourceNMEA, c.Source)
	}

	if c.PublishInterval > 0 && c.TopicOrientation == "" {
		return fmt.Errorf("TOPIC_ORIENTATION is required when PUBLISH_INTERVAL is set")
	}
	return nil
}

// ClientID returns the configured MQTT client id, or a unique one for the
// given role so that several visualizers can share a broker.
func ClientID(configured, role string) string {
	if configured != "" {
		return configured
	}
	return "gyro2d-" + role + "-" + uuid.NewString()[:8]
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// InitGlobalDefault installs Default() when no config file is used.
func InitGlobalDefault() {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = Default()
	})
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
