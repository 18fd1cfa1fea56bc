// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/capture"
	"github.com/Thermoquad/irscope/pkg/infrared"
)

var (
	replayProtocols   []string
	replayText        bool
	replaySession     string
	replayDecodedOnly bool
	replaySave        string
	replayPulses      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Decode a capture file or a text list of durations",
	Long: `Decode pulse trains recorded earlier, without a probe attached.

FILE is either a capture file written by monitor --capture, or a text file
with one pulse train per line as signed microsecond durations (marks
positive, spaces negative, as printed by encode). Lines starting with # are
ignored. Files ending in .txt are read as text; use --text to force it.

Trains are decoded again with the current protocol set, so a capture can be
checked against decoders it was not recorded with. Text imports can be saved
as a capture file with --save.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringSliceVar(&replayProtocols, "protocol", nil, "Protocols to decode (default from config)")
	replayCmd.Flags().BoolVar(&replayText, "text", false, "Read FILE as text durations")
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Only replay this capture session")
	replayCmd.Flags().BoolVar(&replayDecodedOnly, "decoded-only", false, "Only replay trains that decoded when captured")
	replayCmd.Flags().StringVar(&replaySave, "save", "", "Write the replayed trains to this capture file")
	replayCmd.Flags().BoolVar(&replayPulses, "pulses", false, "Print raw pulse durations")
}

func runReplay(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(replayProtocols)
	if err != nil {
		return err
	}
	path := args[0]

	var events []capture.Event
	if replayText || strings.EqualFold(filepath.Ext(path), ".txt") {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		events, err = readTextTrains(f, sampleRate)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	} else {
		filter := &capture.Filter{Session: replaySession, DecodedOnly: replayDecodedOnly}
		events, err = capture.ReadFile(path, filter)
		if err != nil {
			return err
		}
	}

	var recorder capture.Recorder = capture.NoopRecorder{}
	if replaySave != "" {
		file, err := capture.NewFileRecorder(replaySave)
		if err != nil {
			return err
		}
		defer file.Close()
		recorder = file
	}
	session := capture.NewSession(recorder, capture.SourceImport)

	decoder := newTrainDecoder(protocols)
	var decoded, mismatched int
	for i, ev := range events {
		cmds, errs, err := decoder.Decode(ev.SampleRate, ev.Pulses)
		if err != nil {
			return fmt.Errorf("train %d: %w", i+1, err)
		}
		session.Record(ev.SampleRate, ev.Pulses, cmds, errs)

		header := fmt.Sprintf("#%d", i+1)
		if !ev.Timestamp.IsZero() {
			header += " " + ev.Timestamp.Format("2006-01-02 15:04:05.000")
		}
		fmt.Printf("%s (%d entries @ %d Hz)\n", header, len(ev.Pulses), ev.SampleRate)
		if len(cmds) > 0 {
			decoded++
		}
		for _, c := range cmds {
			fmt.Printf("  %s\n", infrared.FormatAnyCommand(c))
		}
		if len(cmds) == 0 {
			fmt.Printf("  (not decoded)\n")
		}
		if !sameCommands(ev.Commands, cmds) {
			mismatched++
			for _, d := range ev.Commands {
				if c, err := d.Any(); err == nil {
					fmt.Printf("  recorded: %s\n", infrared.FormatAnyCommand(c))
				} else {
					fmt.Printf("  recorded: %v\n", err)
				}
			}
		}
		if replayPulses {
			fmt.Printf("  %s\n", infrared.FormatPulses(ev.Pulses, ev.SampleRate))
		}
	}

	fmt.Printf("\n--- Replay summary ---\n")
	fmt.Printf("%d trains, %d decoded", len(events), decoded)
	if mismatched > 0 {
		fmt.Printf(", %d differ from the recording", mismatched)
	}
	fmt.Println()
	return nil
}

// sameCommands compares the commands stored with a train to a fresh decode.
// Repeat flags depend on which trains were replayed before and are ignored.
// Text imports carry no commands and always match.
func sameCommands(recorded []capture.Decoded, cmds []infrared.AnyCommand) bool {
	if len(recorded) == 0 {
		return true
	}
	if len(recorded) != len(cmds) {
		return false
	}
	for i, d := range recorded {
		fresh := capture.FromAny(cmds[i])
		fresh.Repeat = d.Repeat
		if d != fresh {
			return false
		}
	}
	return true
}

// readTextTrains parses one pulse train per line.
func readTextTrains(r io.Reader, rate uint32) ([]capture.Event, error) {
	var events []capture.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		pulses, err := infrared.ParsePulses(text, rate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, capture.Event{SampleRate: rate, Pulses: pulses, Source: capture.SourceImport})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.New("no pulse trains found")
	}
	return events, nil
}
