package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorSerial    ConnectorType = "serial"
	ConnectorBluetooth ConnectorType = "bluetooth"
	ConnectorTCP       ConnectorType = "tcp"

	DefaultSerialBaud = 115200
	DefaultTCPPort    = 8001

	// DefaultRequestTimeoutSec bounds a single command round trip.
	DefaultRequestTimeoutSec = 5

	// DefaultRegionNameWidth mirrors the protocol default; the wire
	// width of region names is capture-derived and unconfirmed, so it is
	// overridable here.
	DefaultRegionNameWidth = 16
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector        ConnectorType `json:"connector"`
	SerialPort       string        `json:"serial_port"`
	SerialBaud       int           `json:"serial_baud"`
	BluetoothAddress string        `json:"bluetooth_address"`
	BluetoothAdapter string        `json:"bluetooth_adapter"`
	TCPHost          string        `json:"tcp_host"`
	TCPPort          int           `json:"tcp_port"`
}

// ProtocolConfig holds wire-format overrides for values inferred from
// captures rather than confirmed against vendor documentation.
type ProtocolConfig struct {
	RegionNameWidth   int `json:"region_name_width"`
	RequestTimeoutSec int `json:"request_timeout_seconds"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Logging    LoggingConfig    `json:"logging"`
	Protocol   ProtocolConfig   `json:"protocol"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector:  ConnectorSerial,
			SerialBaud: DefaultSerialBaud,
			TCPPort:    DefaultTCPPort,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Protocol: ProtocolConfig{
			RegionNameWidth:   DefaultRegionNameWidth,
			RequestTimeoutSec: DefaultRequestTimeoutSec,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorSerial
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Connection.TCPPort <= 0 {
		c.Connection.TCPPort = DefaultTCPPort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Protocol.RegionNameWidth <= 0 {
		c.Protocol.RegionNameWidth = DefaultRegionNameWidth
	}
	if c.Protocol.RequestTimeoutSec <= 0 {
		c.Protocol.RequestTimeoutSec = DefaultRequestTimeoutSec
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	case ConnectorBluetooth:
		if strings.TrimSpace(c.Connection.BluetoothAddress) == "" {
			return errors.New("bluetooth address is required")
		}
	case ConnectorTCP:
		if strings.TrimSpace(c.Connection.TCPHost) == "" {
			return errors.New("tcp host is required")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
