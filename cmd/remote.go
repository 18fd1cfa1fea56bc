// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	remoteCarrier   uint32
	remoteProtocols []string
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Interactive TUI remote control",
	Long: `Use the probe as a remote control from an interactive terminal UI.

The buttons defined in the config file are listed on the left. Enter
transmits the selected button. Tab moves to the custom command field, which
takes "PROTOCOL ADDRESS COMMAND [BITS]".

Features:
  - Configured buttons and free-form commands
  - Received trains decoded live, handy for learning new buttons
  - Probe uptime from periodic pings
  - Event logging
  - Automatic reconnection on connection loss

Supports both serial and WebSocket connections.`,
	RunE: runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().Uint32Var(&remoteCarrier, "carrier", 0, "Carrier frequency in Hz (default from config)")
	remoteCmd.Flags().StringSliceVar(&remoteProtocols, "protocol", nil, "Protocols to decode (default from config)")
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     Connection
	connInfo string
	reader   *linkReader
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

// send writes a packet to the current connection.
func (cm *connectionManager) send(p *pulselink.Packet) error {
	conn := cm.getConn()
	if conn == nil {
		return ErrConnectionClosed
	}
	return sendPacket(conn, p)
}

// transmit encodes c and asks the probe to send it. Completion arrives
// later as TRANSMIT_DONE in the event stream.
func (cm *connectionManager) transmit(c infrared.AnyCommand, carrier uint32) (int, error) {
	pulses, err := encodeCommand(c, sampleRate)
	if err != nil {
		return 0, err
	}
	if err := cm.send(pulselink.NewTransmit(sampleRate, pulses, carrier)); err != nil {
		return 0, err
	}
	return len(pulses), nil
}

func runRemote(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(remoteProtocols)
	if err != nil {
		return err
	}
	carrier := remoteCarrier
	if carrier == 0 {
		carrier = cfg.Transmit.Carrier
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	cm := &connectionManager{
		conn:     conn,
		connInfo: connInfo,
		done:     make(chan struct{}),
	}

	m := initialRemoteModel(cm, connInfo, carrier, newTrainDecoder(protocols), cfg.Buttons)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p

	go cm.readerLoop()
	if err := cm.send(pulselink.NewDeviceInfoRequest()); err != nil {
		slog.Warn("device info request failed", "err", err)
	}

	_, runErr := p.Run()
	close(cm.done)
	cm.shutdown()
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// readerLoop forwards link events to the TUI and reconnects when the
// connection is lost.
func (cm *connectionManager) readerLoop() {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		if cm.forward() {
			cm.p.Send(connectionLostMsg{})
			if !cm.reconnect() {
				return
			}
		}
	}
}

// forward batches events from the current connection at a fixed rate so a
// burst of trains does not flood the TUI. It returns true if the connection
// was lost, false if shutdown was requested.
func (cm *connectionManager) forward() bool {
	reader := startLinkReader(cm.getConn())
	cm.mu.Lock()
	cm.reader = reader
	cm.mu.Unlock()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch remoteBatchMsg
	flush := func() {
		if len(batch.events) > 0 {
			cm.p.Send(batch)
			batch = remoteBatchMsg{}
		}
	}

	for {
		select {
		case <-cm.done:
			return false
		case ev := <-reader.events:
			batch.events = append(batch.events, ev)
		case err := <-reader.err:
			flush()
			slog.Info("connection lost", "err", err)
			return true
		case <-ticker.C:
			flush()
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	cm.shutdown()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			if err := cm.send(pulselink.NewDeviceInfoRequest()); err != nil {
				slog.Warn("device info request failed", "err", err)
			}
			return true
		}
		slog.Debug("reconnect failed", "err", err, "retry", backoff)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// shutdown stops the reader before closing the connection so the read
// error is not reported.
func (cm *connectionManager) shutdown() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.reader != nil {
		cm.reader.Stop()
		cm.reader = nil
	}
	if cm.conn != nil {
		cm.conn.Close()
		cm.conn = nil
	}
}
