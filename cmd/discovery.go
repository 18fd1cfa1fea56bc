// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"github.com/Thermoquad/irscope/pkg/pulselink"
)

const (
	bridgeService = "_irscope._tcp"
	bridgeDomain  = "local."
)

var (
	discoveryTimeout int
	discoveryProbe   bool
	discoverySerial  bool
	discoveryMDNS    bool
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Find probes on serial ports and WebSocket bridges on the network",
	Long: `List candidate probe connections.

Serial: USB serial ports are listed with their vendor and product ids. With
--probe each port is opened and asked for DEVICE_INFO, so PulseLink probes
are told apart from other adapters.

Network: WebSocket bridges announce themselves over mDNS as _irscope._tcp.
The TXT record "path" completes the URL to pass to --url.

Exit codes:
  0 - At least one probe or bridge found
  1 - Nothing found`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 3, "Timeout in seconds for each discovery step")
	discoveryCmd.Flags().BoolVar(&discoveryProbe, "probe", false, "Open each USB serial port and query the probe")
	discoveryCmd.Flags().BoolVar(&discoverySerial, "serial", true, "List serial ports")
	discoveryCmd.Flags().BoolVar(&discoveryMDNS, "mdns", true, "Browse for WebSocket bridges")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	fmt.Printf("irscope - Discovery\n")
	fmt.Printf("Timeout: %d seconds\n", discoveryTimeout)
	timeout := time.Duration(discoveryTimeout) * time.Second
	found := 0

	if discoverySerial {
		n, err := discoverSerial(timeout)
		if err != nil {
			fmt.Printf("Serial discovery failed: %v\n", err)
		}
		found += n
	}

	if discoveryMDNS {
		n, err := discoverBridges(cmd.Context(), timeout)
		if err != nil {
			fmt.Printf("mDNS discovery failed: %v\n", err)
		}
		found += n
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Found: %d\n", found)
	if found == 0 {
		fmt.Printf("Nothing discovered. Check the probe USB cable or bridge network.\n")
		os.Exit(1)
	}
	return nil
}

func discoverSerial(timeout time.Duration) (int, error) {
	fmt.Printf("\nSerial ports:\n")
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return 0, fmt.Errorf("failed to list serial ports: %w", err)
	}

	found := 0
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		fmt.Printf("  %s  [%s:%s] %s", port.Name, port.VID, port.PID, port.Product)
		if port.SerialNumber != "" {
			fmt.Printf(" (serial %s)", port.SerialNumber)
		}
		fmt.Println()

		if !discoveryProbe {
			found++
			continue
		}
		info, err := queryProbe(port.Name, timeout)
		if err != nil {
			slog.Debug("probe query failed", "port", port.Name, "err", err)
			fmt.Printf("    no PulseLink response\n")
			continue
		}
		fmt.Print("  " + info)
		found++
	}
	if found == 0 && !discoveryProbe {
		fmt.Printf("  (no USB serial ports)\n")
	}
	return found, nil
}

// queryProbe asks the device on a serial port to describe itself.
func queryProbe(name string, timeout time.Duration) (string, error) {
	conn, err := OpenSerialConnection(name, baudRate)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	reader := startLinkReader(conn)
	defer reader.Stop()
	if err := sendPacket(conn, pulselink.NewDeviceInfoRequest()); err != nil {
		return "", err
	}
	packet, err := reader.await(pulselink.MsgDeviceInfo, timeout)
	if err != nil {
		return "", err
	}
	return pulselink.FormatPayloadMap(packet.Type(), packet.Map()), nil
}

// bridgeURL builds the WebSocket URL from a service entry.
func bridgeURL(entry *zeroconf.ServiceEntry) string {
	path := "/"
	for _, txt := range entry.Text {
		if v, ok := strings.CutPrefix(txt, "path="); ok {
			path = "/" + strings.TrimPrefix(v, "/")
		}
	}
	host := strings.TrimSuffix(entry.HostName, ".")
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	}
	return fmt.Sprintf("ws://%s:%d%s", host, entry.Port, path)
}

func discoverBridges(ctx context.Context, timeout time.Duration) (int, error) {
	fmt.Printf("\nWebSocket bridges (%s):\n", bridgeService)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- zeroconf.Browse(ctx, bridgeService, bridgeDomain, entries, removed)
	}()

	seen := make(map[string]bool)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			if seen[entry.Instance] {
				continue
			}
			seen[entry.Instance] = true
			fmt.Printf("  %s\n", entry.Instance)
			fmt.Printf("    Host: %s:%d\n", strings.TrimSuffix(entry.HostName, "."), entry.Port)
			for _, ip := range slices.Concat(entry.AddrIPv4, entry.AddrIPv6) {
				fmt.Printf("    Address: %s\n", ip)
			}
			fmt.Printf("    URL: %s\n", bridgeURL(entry))
			for _, txt := range entry.Text {
				if !strings.HasPrefix(txt, "path=") {
					fmt.Printf("    %s\n", txt)
				}
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		case err := <-browseErr:
			if err != nil && ctx.Err() == nil {
				return len(seen), err
			}
			browseErr = nil
		case <-ctx.Done():
			if len(seen) == 0 {
				fmt.Printf("  (none found)\n")
			}
			return len(seen), nil
		}
	}
}
