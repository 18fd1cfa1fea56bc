// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	frameTestTimeout   int
	frameTestProtocols []string
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test the receive path by waiting for a decodable command",
	Long: `Wait for the first pulse train that decodes to a command until timeout.

This command connects to the probe and waits for a valid PulseLink packet
carrying a pulse train that one of the configured decoders recognises. Press
any button on a remote pointed at the probe.

Exit codes:
  0 - Command decoded before timeout
  1 - Timeout reached without decoding a command
  2 - Connection error

Useful for checking receiver wiring and demodulator polarity.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a command")
	frameTestCmd.Flags().StringSliceVar(&frameTestProtocols, "protocol", nil, "Protocols to decode (default from config)")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(frameTestProtocols)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("irscope - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for a decodable command...\n\n")

	reader := startLinkReader(conn)
	decoder := newTrainDecoder(protocols)
	deadline := time.After(time.Duration(frameTestTimeout) * time.Second)
	trains := 0

	for {
		select {
		case ev := <-reader.events:
			if ev.synced && ev.skipped > 0 {
				fmt.Printf("(skipped %d invalid bytes before sync)\n", ev.skipped)
			}
			if ev.packet == nil || ev.packet.Type() != pulselink.MsgPulseTrain {
				continue
			}
			trains++
			rate, _ := ev.packet.SampleRate()
			pulses, _ := ev.packet.Pulses()
			cmds, _, err := decoder.Decode(rate, pulses)
			if err != nil || len(cmds) == 0 {
				fmt.Printf("Train %d: %d entries, not decoded\n", trains, len(pulses))
				continue
			}

			c := cmds[0]
			fmt.Printf("SUCCESS: Decoded command\n")
			fmt.Printf("  Protocol: %s\n", infrared.FormatProtocol(c.Protocol))
			fmt.Printf("  Address: 0x%X\n", c.Address)
			fmt.Printf("  Command: 0x%X\n", c.Command)
			fmt.Printf("  Bits: 0x%X\n", c.Bits)
			fmt.Printf("  Entries: %d @ %d Hz\n", len(pulses), rate)
			reader.Stop()
			os.Exit(0)

		case err := <-reader.err:
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			os.Exit(2)

		case <-deadline:
			fmt.Fprintf(os.Stderr, "TIMEOUT: No command decoded within %d seconds (%d trains received)\n", frameTestTimeout, trains)
			os.Exit(1)
		}
	}
}
