// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	linkTestDuration int
	linkTestHex      bool
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test raw connection stability",
	Long: `Watch the raw byte stream from the probe or bridge without decoding
trains.

Bytes are counted and run through the PulseLink framer only to count frames
and framing errors. Useful for debugging cables, baud rates and flaky
WebSocket bridges.

Exit codes:
  0 - Test completed normally
  1 - Test failed (connection dropped)
  2 - Connection error`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
	linkTestCmd.Flags().BoolVar(&linkTestHex, "hex", false, "Dump every read in hex")
}

// linkCounters tallies the raw stream.
type linkCounters struct {
	reads  int
	bytes  int
	frames int
	errors int
}

func (c linkCounters) print(elapsed time.Duration) {
	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %.1f seconds\n", elapsed.Seconds())
	fmt.Printf("Reads: %d\n", c.reads)
	fmt.Printf("Bytes received: %d", c.bytes)
	if s := elapsed.Seconds(); s > 0 {
		fmt.Printf(" (%.0f B/s)", float64(c.bytes)/s)
	}
	fmt.Println()
	fmt.Printf("Frames: %d\n", c.frames)
	fmt.Printf("Framing errors: %d\n", c.errors)
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkTestDuration)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(linkTestDuration) * time.Second)
	decoder := pulselink.NewDecoder()
	var counters linkCounters

	fmt.Printf("Listening for data...\n\n")

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			counters.reads++
			counters.bytes += len(data)
			if linkTestHex {
				fmt.Printf("[%s] Received %d bytes: %x\n",
					time.Now().Format("15:04:05.000"), len(data), data)
			}
			for _, b := range data {
				packet, err := decoder.DecodeByte(b)
				switch {
				case err != nil:
					counters.errors++
				case packet != nil:
					counters.frames++
				}
			}

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			counters.print(time.Since(start))
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... %d bytes, %d frames (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), counters.bytes, counters.frames, remaining)
		}
	}

	counters.print(time.Since(start))
	fmt.Printf("Result: PASSED (connection stable)\n")
	return nil
}
