// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

var shellProtocols []string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive encode, decode and send prompt",
	Long: `Start an interactive prompt for working with IR commands.

Encoding and decoding work offline. The probe connection is opened on the
first send or press, so the shell is also useful without hardware.

Type 'help' at the prompt for the command list.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringSliceVar(&shellProtocols, "protocol", nil, "Protocols to decode (default from config)")
}

// shell is one interactive session.
type shell struct {
	rl        *readline.Instance
	out       io.Writer
	protocols []infrared.Protocol
	decoder   *trainDecoder

	conn Connection
	tx   *transmitter
}

func runShell(cmd *cobra.Command, args []string) error {
	protocols, err := configuredProtocols(shellProtocols)
	if err != nil {
		return err
	}

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".irscope_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "irscope> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("encode"),
			readline.PcItem("decode"),
			readline.PcItem("send"),
			readline.PcItem("press"),
			readline.PcItem("buttons"),
			readline.PcItem("protocols"),
			readline.PcItem("rate"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}

	s := &shell{
		rl:        rl,
		out:       rl.Stdout(),
		protocols: protocols,
		decoder:   newTrainDecoder(protocols),
	}
	defer s.close()

	s.run()
	return nil
}

func (s *shell) close() {
	if s.tx != nil {
		s.tx.reader.Stop()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.rl.Close()
}

func (s *shell) run() {
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "encode", "e":
			err = s.cmdEncode(args)
		case "decode", "d":
			err = s.cmdDecode(args)
		case "send", "s":
			err = s.cmdSend(args)
		case "press", "p":
			err = s.cmdPress(args)
		case "buttons", "b":
			s.cmdButtons()
		case "protocols":
			s.cmdProtocols()
		case "rate":
			err = s.cmdRate(args)
		case "quit", "exit", "q":
			fmt.Fprintln(s.out, "Exiting...")
			return
		default:
			fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
irscope shell commands:
  encode <proto> <addr> <cmd> [bits]  - Print the pulse train for a command
  decode <us> <us> ...                - Decode durations in microseconds
  send <proto> <addr> <cmd> [bits]    - Transmit through the probe
  press <button>                      - Transmit a configured button
  buttons                             - List configured buttons
  protocols                           - List protocols and decode status
  rate [hz]                           - Show or set the sample rate
  help                                - Show this help
  quit                                - Exit`)
}

// shellCommand parses "<proto> <addr> <cmd> [bits]".
func shellCommand(args []string) (infrared.AnyCommand, error) {
	if len(args) != 3 && len(args) != 4 {
		return infrared.AnyCommand{}, errors.New("usage: <proto> <addr> <cmd> [bits]")
	}
	bits := "0"
	if len(args) == 4 {
		bits = args[3]
	}
	return commandFromArgs(args[:3], bits, false)
}

func (s *shell) cmdEncode(args []string) error {
	c, err := shellCommand(args)
	if err != nil {
		return err
	}
	pulses, err := encodeCommand(c, sampleRate)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n", infrared.FormatAnyCommand(c))
	fmt.Fprintf(s.out, "%d entries @ %d Hz\n", len(pulses), sampleRate)
	fmt.Fprintln(s.out, infrared.FormatPulses(pulses, sampleRate))
	return nil
}

func (s *shell) cmdDecode(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: decode <us> <us> ...")
	}
	pulses, err := infrared.ParsePulses(strings.Join(args, " "), sampleRate)
	if err != nil {
		return err
	}
	cmds, decodeErrs, err := s.decoder.Decode(sampleRate, pulses)
	if err != nil {
		return err
	}
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %s\n", infrared.FormatAnyCommand(c))
	}
	if len(cmds) > 0 {
		return nil
	}
	fmt.Fprintln(s.out, "  (not decoded)")
	for _, err := range decodeErrs {
		fmt.Fprintf(s.out, "  %v\n", err)
	}
	for _, a := range infrared.AnalyzeTrain(pulses, sampleRate) {
		fmt.Fprintf(s.out, "  anomaly: %s\n", a.Message)
	}
	return nil
}

// connect opens the probe connection on first use.
func (s *shell) connect() error {
	if s.tx != nil {
		return nil
	}
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	s.conn = conn
	s.tx = newTransmitter(conn, 0, 2*time.Second)
	fmt.Fprintf(s.out, "Connected: %s\n", connInfo)
	return nil
}

func (s *shell) send(c infrared.AnyCommand) error {
	if err := s.connect(); err != nil {
		return err
	}
	sent, err := s.tx.Send(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Sent %s (%d pulses)\n", infrared.FormatAnyCommand(c), sent)
	return nil
}

func (s *shell) cmdSend(args []string) error {
	c, err := shellCommand(args)
	if err != nil {
		return err
	}
	return s.send(c)
}

func (s *shell) cmdPress(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: press <button>")
	}
	name := strings.Join(args, " ")
	for _, b := range cfg.Buttons {
		if strings.EqualFold(b.Name, name) {
			c, err := b.AnyCommand()
			if err != nil {
				return fmt.Errorf("button %q: %w", b.Name, err)
			}
			return s.send(c)
		}
	}
	return fmt.Errorf("no button named %q", name)
}

func (s *shell) cmdButtons() {
	if len(cfg.Buttons) == 0 {
		fmt.Fprintln(s.out, "No buttons configured")
		return
	}
	for _, b := range cfg.Buttons {
		c, err := b.AnyCommand()
		if err != nil {
			fmt.Fprintf(s.out, "  %-16s %v\n", b.Name, err)
			continue
		}
		fmt.Fprintf(s.out, "  %-16s %s\n", b.Name, infrared.FormatAnyCommand(c))
	}
}

func (s *shell) cmdProtocols() {
	for _, p := range infrared.Protocols() {
		mark := " "
		if slices.Contains(s.protocols, p) {
			mark = "*"
		}
		fmt.Fprintf(s.out, "  %s %s\n", mark, infrared.FormatProtocol(p))
	}
	fmt.Fprintln(s.out, "  (* = decoded)")
}

func (s *shell) cmdRate(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Sample rate: %d Hz\n", sampleRate)
		return nil
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || v == 0 {
		return fmt.Errorf("invalid rate %q", args[0])
	}
	sampleRate = uint32(v)
	fmt.Fprintf(s.out, "Sample rate: %d Hz\n", sampleRate)
	return nil
}
