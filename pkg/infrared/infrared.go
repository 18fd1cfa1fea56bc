// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package infrared decodes and encodes consumer infrared remote-control
// protocols from and to raw pulse timing.
//
// Pulses are measured in ticks of a caller-chosen sample rate. Decoders are
// fed (edge, duration) events, where rising means the receiver went active
// (carrier present, start of a mark) and the duration is the time spent in
// the previous level. Encoders produce the same representation: a leading
// zero-length entry followed by alternating mark and space durations.
//
// Nothing in the event, poll or tick paths allocates or blocks, so the
// decoders can be driven from an interrupt handler or a timer callback. Each
// instance must only be used from one goroutine at a time.
package infrared

// Protocol identifies an infrared remote-control protocol.
type Protocol uint8

// Supported protocols
const (
	ProtocolUnknown Protocol = iota
	ProtocolNEC
	ProtocolNECSamsung
	ProtocolNEC16
	ProtocolNECApple
	ProtocolNECRaw
	ProtocolRC5
	ProtocolRC6
	ProtocolSBP
	ProtocolDenon
	ProtocolMitsubishi
)

// PulseBufferSize is the capacity of a PulseBuffer. It fits the longest
// train any encoder produces (a Mitsubishi frame sent twice).
const PulseBufferSize = 600

// PulseBuffer holds an encoded pulse train in ticks.
type PulseBuffer [PulseBufferSize]uint32

// Status is the externally visible state of a decoder.
type Status uint8

const (
	// StatusIdle means no frame is in progress.
	StatusIdle Status = iota
	// StatusReceiving means a frame has started and more edges are expected.
	StatusReceiving
	// StatusDone means a command is available from Command().
	StatusDone
	// StatusError means the frame was rejected; Err() reports why.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusReceiving:
		return "receiving"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Command is the uniform view over the protocol-specific command structs.
type Command interface {
	Protocol() Protocol
	Address() uint32
	Command() uint32
	IsRepeat() bool
	// Bits returns the payload as it was (or will be) transmitted.
	Bits() uint64
}

// Decoder is a protocol state machine producing commands of type C.
//
// Event must be called for every edge. Once it returns StatusDone or
// StatusError the caller reads Command or Err and then calls Reset before
// feeding further edges; the Receiver types do this automatically.
type Decoder[C Command] interface {
	Protocol() Protocol
	Spans() PulseSpans
	Event(rising bool, dt uint32) Status
	Status() Status
	Command() (C, bool)
	Err() error
	Reset()
}

// Encoder expands a command into a pulse train. The train starts with a zero
// entry followed by alternating mark and space durations in ticks. It returns
// the number of entries written.
type Encoder[C Command] interface {
	Encode(cmd C, buf []uint32) (int, error)
}
