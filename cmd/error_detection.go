// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
	edProtocols   []string
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze undecodable pulse trains",
	Long: `Track decode failures, timing anomalies and link errors with statistics.

Every pulse train from the probe is checked for:
  - Link errors (CRC failures, framing errors, malformed payloads)
  - Classification errors (pulses outside every protocol timing window)
  - Validation errors (checksums, inverted bytes, parity)
  - Timing anomalies (glitches, overlong pulses, trains ending on a space)

By default, only problems are displayed. Use --show-all to display decoded
commands too.

Statistics are summarised periodically at a configurable interval.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all trains (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
	errorDetectionCmd.Flags().StringSliceVar(&edProtocols, "protocol", nil, "Protocols to decode (default from config)")
}

// trainReport is the analysis of one event from the probe.
type trainReport struct {
	packet     *pulselink.Packet
	linkErr    error
	invalid    []pulselink.ValidationError
	cmds       []infrared.AnyCommand
	decodeErrs []error
	anomalies  []infrared.Anomaly
}

// problems reports whether anything in the train needs attention. Decoder
// errors only count when no decoder recognised the train.
func (r trainReport) problems() bool {
	if r.linkErr != nil || len(r.invalid) > 0 || len(r.anomalies) > 0 {
		return true
	}
	return len(r.cmds) == 0 && len(r.decodeErrs) > 0
}

// analyze decodes and checks one link event. Packets other than pulse
// trains produce a report with only the packet set.
func analyze(ev linkEvent, decoder *trainDecoder) trainReport {
	if ev.decodeErr != nil {
		return trainReport{linkErr: ev.decodeErr}
	}
	r := trainReport{packet: ev.packet}
	if ev.packet.Type() != pulselink.MsgPulseTrain {
		return r
	}
	if r.invalid = pulselink.ValidatePacket(ev.packet); len(r.invalid) > 0 {
		return r
	}

	rate, _ := ev.packet.SampleRate()
	pulses, _ := ev.packet.Pulses()
	cmds, decodeErrs, err := decoder.Decode(rate, pulses)
	if err != nil {
		r.linkErr = err
		return r
	}
	r.cmds = cmds
	r.decodeErrs = decodeErrs
	r.anomalies = infrared.AnalyzeTrain(pulses, rate)
	return r
}

// record adds a report to the statistics.
func record(stats *infrared.Statistics, r trainReport) {
	switch {
	case r.linkErr != nil:
		stats.Update(nil, []error{r.linkErr}, nil)
	case len(r.invalid) > 0:
		errs := make([]error, len(r.invalid))
		for i := range r.invalid {
			errs[i] = &r.invalid[i]
		}
		stats.Update(nil, errs, nil)
	case r.packet != nil && r.packet.Type() == pulselink.MsgPulseTrain:
		stats.Update(r.cmds, r.decodeErrs, r.anomalies)
	}
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(edProtocols)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	reader := startLinkReader(conn)
	defer reader.Stop()
	decoder := newTrainDecoder(protocols)

	if useTUI {
		return runTUIMode(reader, decoder, connInfo)
	}
	return runTextMode(reader, decoder, connInfo)
}

// printLinkError prints a link error in highlighted format
func printLinkError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mLINK ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> PACKET LOST <<<\n\n")
}

// printReport prints the problems found in one pulse train
func printReport(r trainReport) {
	timestamp := r.packet.Timestamp().Format("15:04:05.000")

	if len(r.invalid) > 0 {
		fmt.Printf("[%s] \033[1;33mINVALID PACKET:\033[0m %s\n", timestamp, pulselink.FormatMessageType(r.packet.Type()))
		for i, v := range r.invalid {
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, v.Message)
		}
		fmt.Printf("  >>> PACKET REJECTED <<<\n\n")
		return
	}

	pulses, _ := r.packet.Pulses()
	rate, _ := r.packet.SampleRate()
	fmt.Printf("[%s] \033[1;33mTRAIN:\033[0m %d entries @ %d Hz\n", timestamp, len(pulses), rate)
	for _, c := range r.cmds {
		fmt.Printf("  Decoded: \033[1;32m%s\033[0m\n", infrared.FormatAnyCommand(c))
	}
	for i, err := range r.decodeErrs {
		color := "\033[1;31m"
		if errors.Is(err, infrared.ErrClassification) {
			// Every decoder not matching the protocol rejects the train
			// this way, so it is only a warning.
			color = "\033[1;33m"
		}
		fmt.Printf("  Decode %d: %s%v\033[0m\n", i+1, color, err)
	}
	for i, a := range r.anomalies {
		fmt.Printf("  Anomaly %d: \033[1;33m%s\033[0m (%s)\n", i+1, a.Message, a.Type)
	}
	if len(r.cmds) == 0 {
		fmt.Printf("  %s\n", infrared.FormatPulses(pulses, rate))
		fmt.Printf("  >>> NOT DECODED <<<\n")
	}
	fmt.Println()
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(reader *linkReader, decoder *trainDecoder, connInfo string) error {
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	go func() {
		for {
			select {
			case ev := <-reader.events:
				if ev.synced {
					p.Send(syncMsg{invalidBytes: ev.skipped})
				}
				p.Send(trainMsg(analyze(ev, decoder)))
			case err := <-reader.err:
				p.Send(linkClosedMsg{err: err})
				return
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(reader *linkReader, decoder *trainDecoder, connInfo string) error {
	fmt.Printf("irscope - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All trains\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := infrared.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev := <-reader.events:
			if ev.synced {
				if ev.skipped > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", ev.skipped)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			r := analyze(ev, decoder)
			record(stats, r)

			switch {
			case r.linkErr != nil:
				printLinkError(r.linkErr)
			case r.packet.Type() == pulselink.MsgPong:
				// Always print pongs, the probe sends them as a heartbeat
				fmt.Print(pulselink.FormatPacket(r.packet))
			case r.packet.Type() != pulselink.MsgPulseTrain:
				if showAll {
					fmt.Print(pulselink.FormatPacket(r.packet))
				}
			case r.problems() || len(r.cmds) == 0 || showAll:
				printReport(r)
			}

		case err := <-reader.err:
			fmt.Println()
			fmt.Print(stats.String())
			if errors.Is(err, ErrConnectionClosed) {
				return nil
			}
			return err

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
