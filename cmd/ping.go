// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	pingTimeout int
	pingCount   int
	pingInfo    bool
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the probe link by sending PING",
	Long: `Send PING packets to the probe and wait for PONG.

This command tests bidirectional communication with the probe, directly over
serial or through a WebSocket bridge. The probe answers with its uptime.
With --info the probe is also asked for its DEVICE_INFO.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().BoolVar(&pingInfo, "info", false, "Request and print device information")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("irscope - Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	reader := startLinkReader(conn)
	defer reader.Stop()
	timeout := time.Duration(pingTimeout) * time.Second
	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		startTime := time.Now()
		if err := sendPacket(conn, pulselink.NewPing()); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		packet, err := reader.await(pulselink.MsgPong, timeout)
		switch {
		case errors.Is(err, ErrTimeout):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		case err != nil:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount++
		default:
			rtt := time.Since(startTime)
			uptime, _ := pulselink.GetMapUint(packet.Map(), pulselink.KeyUptime)
			fmt.Printf("PONG, uptime=%s, rtt=%v\n", formatUptime(uptime), rtt.Round(time.Millisecond))
			successCount++
		}

		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	if pingInfo {
		fmt.Printf("\nDevice info: ")
		if err := sendPacket(conn, pulselink.NewDeviceInfoRequest()); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
		} else if packet, err := reader.await(pulselink.MsgDeviceInfo, timeout); err != nil {
			fmt.Printf("%v\n", err)
		} else {
			fmt.Printf("\n%s", pulselink.FormatPayloadMap(packet.Type(), packet.Map()))
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
