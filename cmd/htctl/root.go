package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/config"
)

var (
	flagConnector string
	flagPort      string
	flagBaud      int
	flagBTAddr    string
	flagBTAdapter string
	flagTCPHost   string
	flagTCPPort   int
	flagLogLevel  string
	flagTimeout   int
)

var rootCmd = &cobra.Command{
	Use:   "htctl",
	Short: "Control a handheld radio over serial, Bluetooth LE or TCP",
	Long: `htctl drives a handheld radio transceiver from the host: it reads and
writes the channel table, device settings, beacon configuration and
region names, streams live device events, and sends TNC data frames.

Connection modes:
  Serial:    --connector serial --port /dev/ttyUSB0 [--baud 115200]
  Bluetooth: --connector bluetooth --bt-address AA:BB:CC:DD:EE:FF
  TCP:       --connector tcp --tcp-host 127.0.0.1 [--tcp-port 8001]

Flags override the persisted configuration file for a single run.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConnector, "connector", "", "Connection backend: serial, bluetooth or tcp")
	pf.StringVarP(&flagPort, "port", "p", "", "Serial port device")
	pf.IntVarP(&flagBaud, "baud", "b", 0, "Serial baud rate")
	pf.StringVar(&flagBTAddr, "bt-address", "", "Bluetooth device address")
	pf.StringVar(&flagBTAdapter, "bt-adapter", "", "Bluetooth adapter id (platform specific)")
	pf.StringVar(&flagTCPHost, "tcp-host", "", "TCP host (device emulator)")
	pf.IntVar(&flagTCPPort, "tcp-port", 0, "TCP port")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.IntVar(&flagTimeout, "timeout", 0, "Per-command reply timeout in seconds")
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig merges the persisted config with flag overrides.
func loadConfig(cmd *cobra.Command) (app.Paths, config.AppConfig, error) {
	paths, err := app.ResolvePaths()
	if err != nil {
		return app.Paths{}, config.AppConfig{}, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return app.Paths{}, config.AppConfig{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("connector") {
		cfg.Connection.Connector = config.ConnectorType(flagConnector)
	}
	if flags.Changed("port") {
		cfg.Connection.SerialPort = flagPort
		if cfg.Connection.Connector == "" {
			cfg.Connection.Connector = config.ConnectorSerial
		}
	}
	if flags.Changed("baud") {
		cfg.Connection.SerialBaud = flagBaud
	}
	if flags.Changed("bt-address") {
		cfg.Connection.BluetoothAddress = flagBTAddr
		if !flags.Changed("connector") {
			cfg.Connection.Connector = config.ConnectorBluetooth
		}
	}
	if flags.Changed("bt-adapter") {
		cfg.Connection.BluetoothAdapter = flagBTAdapter
	}
	if flags.Changed("tcp-host") {
		cfg.Connection.TCPHost = flagTCPHost
		if !flags.Changed("connector") {
			cfg.Connection.Connector = config.ConnectorTCP
		}
	}
	if flags.Changed("tcp-port") {
		cfg.Connection.TCPPort = flagTCPPort
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if flags.Changed("timeout") {
		cfg.Protocol.RequestTimeoutSec = flagTimeout
	}
	cfg.FillMissingDefaults()

	return paths, cfg, nil
}

// withRuntime runs fn against a connected, hydrated runtime and tears it
// down afterwards. One connection per invocation.
func withRuntime(cmd *cobra.Command, fn func(rt *app.Runtime) error) error {
	paths, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := app.InitializeWithConfig(cmd.Context(), paths, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	if err := rt.ConnectAndHydrate(cmd.Context()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	return fn(rt)
}

// withStreamingRuntime hands fn a runtime whose connector loop is
// running: the link is connected and hydrated in the background and
// comes back on its own after transport failures.
func withStreamingRuntime(cmd *cobra.Command, fn func(rt *app.Runtime) error) error {
	paths, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := app.InitializeWithConfig(cmd.Context(), paths, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	rt.Start()

	return fn(rt)
}
