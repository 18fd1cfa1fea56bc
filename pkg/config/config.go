// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the irscope TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

//go:embed irscope.toml
var defaultConfigData []byte

// Config represents the entire TOML configuration structure
type Config struct {
	SampleRate uint32    `toml:"sample_rate"`
	Protocols  []string  `toml:"protocols"`
	CaptureDir string    `toml:"capture_dir"`
	Serial     Serial    `toml:"serial"`
	WebSocket  WebSocket `toml:"websocket"`
	Transmit   Transmit  `toml:"transmit"`
	Buttons    []Button  `toml:"button"`
}

// Serial holds the probe serial port settings
type Serial struct {
	Port string `toml:"port"`
	Baud int    `toml:"baud"`
}

// WebSocket holds the bridge connection settings
type WebSocket struct {
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// Transmit holds the IR LED settings
type Transmit struct {
	Carrier uint32 `toml:"carrier"`
}

// Button is a named command for the remote command
type Button struct {
	Name     string `toml:"name"`
	Protocol string `toml:"protocol"`
	Address  uint32 `toml:"address"`
	Command  uint32 `toml:"command"`
}

// Path determines the config file path based on the operating system
func Path() (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		return filepath.Join(dir, "irscope", "irscope.toml"), nil
	default:
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
		return filepath.Join(dir, ".irscope.toml"), nil
	}
}

// Default returns the embedded default configuration.
func Default() *Config {
	conf, err := parse(defaultConfigData, "embedded default")
	if err != nil {
		panic(err)
	}
	return conf
}

// Initialize loads the configuration from the default path, creating the
// file from the embedded default if it doesn't exist.
func Initialize() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if err := ensureFile(path); err != nil {
		return nil, err
	}
	return Load(path)
}

func ensureFile(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
		return fmt.Errorf("failed to create default config file at %s: %w", path, err)
	}
	return nil
}

// Load parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data, path)
}

func parse(data []byte, name string) (*Config, error) {
	var conf Config
	if _, err := toml.Decode(string(data), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config at %s: %w", name, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &conf, nil
}

// Validate checks field ranges and protocol names.
func (c *Config) Validate() error {
	if c.SampleRate == 0 {
		return errors.New("sample_rate must be positive")
	}
	if len(c.Protocols) == 0 {
		return errors.New("protocols list is empty")
	}
	if _, err := c.ProtocolList(); err != nil {
		return err
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial baud %d must be positive", c.Serial.Baud)
	}
	if c.Transmit.Carrier == 0 {
		return errors.New("transmit carrier must be positive")
	}
	for i, b := range c.Buttons {
		if b.Name == "" {
			return fmt.Errorf("button %d has no name", i)
		}
		if _, err := infrared.ParseProtocol(b.Protocol); err != nil {
			return fmt.Errorf("button %q: %w", b.Name, err)
		}
	}
	return nil
}

// ProtocolList resolves the configured protocol names.
func (c *Config) ProtocolList() ([]infrared.Protocol, error) {
	protocols := make([]infrared.Protocol, 0, len(c.Protocols))
	for _, name := range c.Protocols {
		p, err := infrared.ParseProtocol(name)
		if err != nil {
			return nil, fmt.Errorf("protocols: %w", err)
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}

// AnyCommand converts a button to a type-erased command.
func (b Button) AnyCommand() (infrared.AnyCommand, error) {
	p, err := infrared.ParseProtocol(b.Protocol)
	if err != nil {
		return infrared.AnyCommand{}, err
	}
	return infrared.AnyCommand{Protocol: p, Address: b.Address, Command: b.Command}, nil
}
