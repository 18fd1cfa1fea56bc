// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/capture"
	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	monitorProtocols []string
	monitorCapture   string
	monitorPulses    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode live pulse trains from the probe",
	Long: `Continuously decode pulse trains reported by the probe and print every
recognised command as it arrives.

Each train is run through all configured protocol decoders at once. Use
--protocol to restrict the set, --pulses to also print the raw durations,
and --capture to append every train to a capture file for later replay.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringSliceVar(&monitorProtocols, "protocol", nil, "Protocols to decode (default from config)")
	monitorCmd.Flags().StringVar(&monitorCapture, "capture", "", "Append pulse trains to this capture file")
	monitorCmd.Flags().BoolVar(&monitorPulses, "pulses", false, "Print raw pulse durations")
}

// openCapture picks the capture file from the flag or the config capture
// directory. It returns nil when capturing is disabled.
func openCapture(path string) (*capture.FileRecorder, error) {
	if path == "" && cfg.CaptureDir != "" {
		if err := os.MkdirAll(cfg.CaptureDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create capture directory: %w", err)
		}
		path = filepath.Join(cfg.CaptureDir, time.Now().Format("20060102-150405")+".irc")
	}
	if path == "" {
		return nil, nil
	}
	return capture.NewFileRecorder(path)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(monitorProtocols)
	if err != nil {
		return err
	}

	file, err := openCapture(monitorCapture)
	if err != nil {
		return err
	}
	recorders := []capture.Recorder{capture.NewSlogRecorder(slog.Default())}
	if file != nil {
		defer file.Close()
		recorders = append(recorders, file)
	}
	session := capture.NewSession(capture.NewMultiRecorder(recorders...), capture.SourceProbe)

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("irscope - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Protocols: %v\n", protocols)
	if file != nil {
		fmt.Printf("Capture session: %s\n", session.ID)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := newTrainDecoder(protocols)
	reader := startLinkReader(conn)
	defer reader.Stop()

	for {
		select {
		case err := <-reader.err:
			if errors.Is(err, ErrConnectionClosed) {
				slog.Info("connection closed")
				return nil
			}
			return err

		case ev := <-reader.events:
			if ev.decodeErr != nil {
				fmt.Printf("[ERROR] %v\n", ev.decodeErr)
				continue
			}
			if ev.synced && ev.skipped > 0 {
				slog.Info("synchronized", "skipped", ev.skipped)
			}
			packet := ev.packet
			if packet.Type() != pulselink.MsgPulseTrain {
				fmt.Print(pulselink.FormatPacket(packet))
				continue
			}
			printTrain(packet, decoder, session)
			if file != nil {
				if err := file.Err(); err != nil {
					return fmt.Errorf("capture failed: %w", err)
				}
			}
		}
	}
}

func printTrain(packet *pulselink.Packet, decoder *trainDecoder, session *capture.Session) {
	timestamp := packet.Timestamp().Format("15:04:05.000")
	rate, _ := packet.SampleRate()
	pulses, ok := packet.Pulses()
	if !ok {
		fmt.Printf("[%s] PULSE_TRAIN without pulses\n", timestamp)
		return
	}

	cmds, errs, err := decoder.Decode(rate, pulses)
	if err != nil {
		fmt.Printf("[%s] [ERROR] %v\n", timestamp, err)
		return
	}
	session.Record(rate, pulses, cmds, errs)

	if len(cmds) == 0 {
		fmt.Printf("[%s] (%d entries, no command)\n", timestamp, len(pulses))
	}
	for _, c := range cmds {
		fmt.Printf("[%s] %s\n", timestamp, infrared.FormatAnyCommand(c))
	}
	for _, e := range errs {
		slog.Debug("frame rejected", "err", e)
	}
	if monitorPulses {
		fmt.Printf("  %s\n", infrared.FormatPulses(pulses, rate))
	}
}
