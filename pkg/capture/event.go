// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records pulse trains and the commands decoded from them.
//
// Capture files are a stream of CBOR encoded Events with integer keys. They
// are written by the monitor command and read back by replay, so a session
// recorded at the bench can be decoded again with different protocols or
// tolerances.
//
//	rec, _ := capture.NewFileRecorder("living-room.irc")
//	session := capture.NewSession(rec, capture.SourceProbe)
//	session.Record(sampleRate, pulses, cmds, errs)
package capture

import (
	"fmt"
	"time"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// Event is one captured pulse train.
type Event struct {
	// Timestamp when the train was received.
	Timestamp time.Time `cbor:"1,keyasint"`

	// Session identifies the capture session (UUID).
	Session string `cbor:"2,keyasint"`

	// Source is where the train came from.
	Source Source `cbor:"3,keyasint"`

	// SampleRate of the pulse durations in Hz.
	SampleRate uint32 `cbor:"4,keyasint"`

	// Pulses in encoder buffer layout: idle time, then marks and spaces.
	Pulses []uint32 `cbor:"5,keyasint"`

	// Commands decoded from the train.
	Commands []Decoded `cbor:"6,keyasint,omitempty"`

	// Errors raised by decoders while the train was processed.
	Errors []string `cbor:"7,keyasint,omitempty"`
}

// Source indicates where a pulse train was captured.
type Source uint8

const (
	// SourceProbe is a train received by a capture probe.
	SourceProbe Source = 0
	// SourceTransmit is a train this host sent.
	SourceTransmit Source = 1
	// SourceImport is a train parsed from text.
	SourceImport Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceProbe:
		return "PROBE"
	case SourceTransmit:
		return "TRANSMIT"
	case SourceImport:
		return "IMPORT"
	default:
		return "UNKNOWN"
	}
}

// Decoded is a command in a capture file. The protocol is stored by name so
// files stay readable when protocols are added.
type Decoded struct {
	Protocol string `cbor:"1,keyasint"`
	Bits     uint64 `cbor:"2,keyasint"`
	Address  uint32 `cbor:"3,keyasint"`
	Command  uint32 `cbor:"4,keyasint"`
	Repeat   bool   `cbor:"5,keyasint,omitempty"`
}

// FromAny converts a decoded command for storage.
func FromAny(cmd infrared.AnyCommand) Decoded {
	return Decoded{
		Protocol: cmd.Protocol.String(),
		Bits:     cmd.Bits,
		Address:  cmd.Address,
		Command:  cmd.Command,
		Repeat:   cmd.Repeat,
	}
}

// Any converts a stored command back to an AnyCommand.
func (d Decoded) Any() (infrared.AnyCommand, error) {
	p, err := infrared.ParseProtocol(d.Protocol)
	if err != nil {
		return infrared.AnyCommand{}, fmt.Errorf("stored command: %w", err)
	}
	return infrared.AnyCommand{
		Protocol: p,
		Bits:     d.Bits,
		Address:  d.Address,
		Command:  d.Command,
		Repeat:   d.Repeat,
	}, nil
}

// HasProtocol reports whether any decoded command uses protocol p.
func (e Event) HasProtocol(p infrared.Protocol) bool {
	name := p.String()
	for _, c := range e.Commands {
		if c.Protocol == name {
			return true
		}
	}
	return false
}
