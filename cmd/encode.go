// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

var (
	encodeBits   string
	encodeRepeat bool
	encodeTicks  bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode PROTOCOL ADDRESS COMMAND",
	Short: "Print the pulse train for a command",
	Long: `Encode a command and print the resulting pulse train.

Durations are printed in microseconds, marks positive and spaces negative,
in the format accepted by replay --text. Use --ticks for raw sample counts at
--rate.

ADDRESS and COMMAND accept decimal, 0x hex and 0b binary. --bits carries the
RC5/RC6 toggle bit and the Mitsubishi state bytes.

Examples:
  irscope encode nec 0x07 0x2C
  irscope encode rc5 5 0x35 --bits 0x800
  irscope encode mitsubishi 0 0 --bits 0x36081820`,
	Args: cobra.ExactArgs(3),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	addCommandFlags(encodeCmd, &encodeBits, &encodeRepeat)
	encodeCmd.Flags().BoolVar(&encodeTicks, "ticks", false, "Print raw tick counts instead of microseconds")
}

// addCommandFlags registers the flags shared by commands that build an
// AnyCommand from arguments.
func addCommandFlags(c *cobra.Command, bits *string, repeat *bool) {
	c.Flags().StringVar(bits, "bits", "0", "Raw bits (toggle, Mitsubishi state)")
	c.Flags().BoolVar(repeat, "repeat", false, "Encode a repeat frame where the protocol has one")
}

func commandFromArgs(args []string, bits string, repeat bool) (infrared.AnyCommand, error) {
	b, err := parseUint(bits, 64)
	if err != nil {
		return infrared.AnyCommand{}, fmt.Errorf("--bits: %w", err)
	}
	return parseCommandArgs(args, b, repeat)
}

func runEncode(cmd *cobra.Command, args []string) error {
	c, err := commandFromArgs(args, encodeBits, encodeRepeat)
	if err != nil {
		return err
	}
	pulses, err := encodeCommand(c, sampleRate)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", infrared.FormatAnyCommand(c))
	fmt.Printf("%d entries @ %d Hz\n", len(pulses), sampleRate)
	if encodeTicks {
		ticks := make([]string, len(pulses))
		for i, t := range pulses {
			ticks[i] = fmt.Sprint(t)
		}
		fmt.Println(strings.Join(ticks, " "))
		return nil
	}
	fmt.Println(infrared.FormatPulses(pulses, sampleRate))
	return nil
}
