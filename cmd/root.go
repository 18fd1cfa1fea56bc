// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/config"
	"github.com/Thermoquad/irscope/pkg/infrared"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Decoding flags
	configPath string
	sampleRate uint32
	logLevel   string

	// Loaded by PersistentPreRunE before any command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "irscope",
	Short: "Infrared remote protocol analyzer",
	Long: `irscope - A CLI tool for capturing, decoding and transmitting infrared
remote control commands through a PulseLink probe.

Supported protocols: NEC (standard, Samsung, 16-bit address, Apple, raw),
RC5, RC6 mode 0, SBP, Denon and Mitsubishi air conditioners.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings not given on the command line are read from ~/.irscope.toml, which
is created with defaults on first use.

For WebSocket authentication, the password is read from the IRSCOPE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.irscope.toml)")
	rootCmd.PersistentFlags().Uint32Var(&sampleRate, "rate", 1_000_000, "Sample rate of pulse durations in Hz")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// loadSettings reads the config file and fills in every persistent flag the
// user did not set explicitly.
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := setupLogging(logLevel); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Initialize()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("port") {
		portName = cfg.Serial.Port
	}
	if !flags.Changed("baud") {
		baudRate = cfg.Serial.Baud
	}
	if !flags.Changed("url") {
		wsURL = cfg.WebSocket.URL
	}
	if !flags.Changed("username") {
		wsUsername = cfg.WebSocket.Username
	}
	if !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = cfg.WebSocket.NoSSLVerify
	}
	if !flags.Changed("rate") {
		sampleRate = cfg.SampleRate
	}
	if sampleRate == 0 {
		return fmt.Errorf("--rate must be positive")
	}

	slog.Debug("settings loaded", "rate", sampleRate, "port", portName, "url", wsURL)
	return nil
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
	return nil
}

// configuredProtocols returns the protocols to decode: the --protocol flag
// values when given, otherwise the config file list.
func configuredProtocols(names []string) ([]infrared.Protocol, error) {
	if len(names) == 0 {
		return cfg.ProtocolList()
	}
	protocols := make([]infrared.Protocol, 0, len(names))
	for _, name := range names {
		p, err := infrared.ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
