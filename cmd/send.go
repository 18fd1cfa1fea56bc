// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/capture"
	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	sendBits    string
	sendRepeat  bool
	sendCount   int
	sendTimeout int
	sendCarrier uint32
	sendCapture string
)

var sendCmd = &cobra.Command{
	Use:   "send PROTOCOL ADDRESS COMMAND",
	Short: "Transmit a command through the probe",
	Long: `Encode a command and transmit it through the probe IR LED.

The pulse train is sent in a TRANSMIT packet and the command waits for
TRANSMIT_DONE before sending the next copy. With --count greater than one,
protocols that have a repeat frame send it for the following copies.

Exit codes:
  0 - All copies transmitted
  1 - The probe rejected a transmission or did not answer in time`,
	Args: cobra.ExactArgs(3),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addCommandFlags(sendCmd, &sendBits, &sendRepeat)
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of copies to send")
	sendCmd.Flags().IntVar(&sendTimeout, "timeout", 2, "Timeout in seconds for TRANSMIT_DONE")
	sendCmd.Flags().Uint32Var(&sendCarrier, "carrier", 0, "Carrier frequency in Hz (default from config)")
	sendCmd.Flags().StringVar(&sendCapture, "capture", "", "Append transmitted trains to this capture file")
}

// transmitter sends encoded commands to the probe and waits for completion.
type transmitter struct {
	conn    Connection
	reader  *linkReader
	carrier uint32
	timeout time.Duration
	session *capture.Session
}

func (t *transmitter) Send(c infrared.AnyCommand) (uint32, error) {
	pulses, err := encodeCommand(c, sampleRate)
	if err != nil {
		return 0, err
	}
	if err := sendPacket(t.conn, pulselink.NewTransmit(sampleRate, pulses, t.carrier)); err != nil {
		return 0, err
	}
	slog.Debug("transmit", "protocol", c.Protocol, "entries", len(pulses), "carrier", t.carrier)

	done, err := t.reader.await(pulselink.MsgTransmitDone, t.timeout)
	if err != nil {
		return 0, err
	}
	sent, _ := pulselink.GetMapUint(done.Map(), pulselink.KeySent)
	if t.session != nil {
		t.session.Record(sampleRate, pulses, []infrared.AnyCommand{c}, nil)
	}
	return uint32(sent), nil
}

func newTransmitter(conn Connection, carrier uint32, timeout time.Duration) *transmitter {
	if carrier == 0 {
		carrier = cfg.Transmit.Carrier
	}
	return &transmitter{
		conn:    conn,
		reader:  startLinkReader(conn),
		carrier: carrier,
		timeout: timeout,
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := commandFromArgs(args, sendBits, sendRepeat)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	tx := newTransmitter(conn, sendCarrier, time.Duration(sendTimeout)*time.Second)
	defer tx.reader.Stop()
	if sendCapture != "" {
		file, err := capture.NewFileRecorder(sendCapture)
		if err != nil {
			return err
		}
		defer file.Close()
		tx.session = capture.NewSession(file, capture.SourceTransmit)
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Sending %s (carrier %d Hz)\n", infrared.FormatAnyCommand(c), tx.carrier)

	for i := 1; i <= sendCount; i++ {
		if i > 1 {
			c.Repeat = true
		}
		sent, err := tx.Send(c)
		if err != nil {
			return fmt.Errorf("copy %d/%d: %w", i, sendCount, err)
		}
		fmt.Printf("Copy %d/%d: %d pulses sent\n", i, sendCount, sent)
	}
	return nil
}
