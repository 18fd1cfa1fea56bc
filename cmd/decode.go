// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// trainDecoder decodes complete pulse trains with one MultiReceiver per
// sample rate, since probes may report trains at different rates.
type trainDecoder struct {
	protocols []infrared.Protocol
	receivers map[uint32]*infrared.MultiReceiver
}

func newTrainDecoder(protocols []infrared.Protocol) *trainDecoder {
	return &trainDecoder{
		protocols: protocols,
		receivers: make(map[uint32]*infrared.MultiReceiver),
	}
}

// Decode runs one train through every decoder. Frames that span two trains
// are not joined: each train starts from a reset receiver.
func (t *trainDecoder) Decode(rate uint32, pulses []uint32) ([]infrared.AnyCommand, []error, error) {
	if rate == 0 {
		return nil, nil, fmt.Errorf("sample rate must be positive")
	}
	r, ok := t.receivers[rate]
	if !ok {
		var err error
		r, err = infrared.NewMultiReceiverFor(rate, t.protocols...)
		if err != nil {
			return nil, nil, err
		}
		t.receivers[rate] = r
	}

	var cmds []infrared.AnyCommand
	var errs []error
	r.Reset()
	for i, dt := range pulses {
		// Both slices are reused by the receiver.
		cmds = append(cmds, r.Event(i%2 == 0, dt)...)
		errs = append(errs, r.Errors()...)
	}
	return cmds, errs, nil
}

// parseUint accepts decimal, 0x hex and 0b binary values.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

// parseCommandArgs builds a command from PROTOCOL ADDRESS COMMAND. The raw
// bits carry the RC5/RC6 toggle and the Mitsubishi state block.
func parseCommandArgs(args []string, bits uint64, repeat bool) (infrared.AnyCommand, error) {
	if len(args) != 3 {
		return infrared.AnyCommand{}, fmt.Errorf("expected PROTOCOL ADDRESS COMMAND, got %d arguments", len(args))
	}
	p, err := infrared.ParseProtocol(args[0])
	if err != nil {
		return infrared.AnyCommand{}, err
	}
	addr, err := parseUint(args[1], 32)
	if err != nil {
		return infrared.AnyCommand{}, fmt.Errorf("address: %w", err)
	}
	command, err := parseUint(args[2], 32)
	if err != nil {
		return infrared.AnyCommand{}, fmt.Errorf("command: %w", err)
	}
	return infrared.AnyCommand{
		Protocol: p,
		Address:  uint32(addr),
		Command:  uint32(command),
		Bits:     bits,
		Repeat:   repeat,
	}, nil
}

// encodeCommand encodes cmd into a fresh slice at the given rate.
func encodeCommand(cmd infrared.AnyCommand, rate uint32) ([]uint32, error) {
	var buf infrared.PulseBuffer
	n, err := infrared.EncodeAny(cmd, rate, buf[:])
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Protocol, err)
	}
	return append([]uint32(nil), buf[:n]...), nil
}
