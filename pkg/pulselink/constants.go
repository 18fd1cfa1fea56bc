// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pulselink implements the PulseLink serial protocol spoken between
// the host tools and an infrared capture probe.
//
// A probe timestamps the edges of a demodulating IR receiver and reports
// each burst as a pulse train; the host can ask it to play a train back
// through its IR LED. Frames are byte-stuffed, CRC protected and carry a
// CBOR payload of the form [msg_type, {key: value}].
package pulselink

// Protocol framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Packet size limits. A full pulse buffer of 600 entries needs at most
// five CBOR bytes per entry.
const (
	MaxPayloadSize = 4096
	MaxPacketSize  = MaxPayloadSize + 4 // length + payload + CRC
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Message types - Link management 0x01-0x0F
const (
	MsgPing       = 0x01
	MsgPong       = 0x02
	MsgDeviceInfo = 0x03
)

// Message types - Capture (Probe → Host) 0x10-0x1F
const (
	MsgPulseTrain = 0x10
)

// Message types - Transmit 0x20-0x2F
const (
	MsgTransmit     = 0x20
	MsgTransmitDone = 0x21
)

// Message types - Errors (Probe → Host) 0xE0-0xEF
const (
	MsgError = 0xE0
)

// Payload keys
const (
	// PONG
	KeyUptime = 0

	// DEVICE_INFO
	KeyName        = 0
	KeyInfoRate    = 1
	KeyInfoCarrier = 2
	KeyFirmware    = 3

	// PULSE_TRAIN and TRANSMIT
	KeySampleRate = 0
	KeyPulses     = 1
	KeyTimestamp  = 2 // PULSE_TRAIN: capture time in microseconds
	KeyCarrier    = 2 // TRANSMIT: carrier frequency in Hz

	// TRANSMIT_DONE
	KeySent = 0

	// ERROR
	KeyErrorCode    = 0
	KeyErrorMessage = 1
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateLength1
	stateLength2
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)

// ErrorCode is the code carried by an ERROR message
type ErrorCode int

// Error code values
const (
	ErrorCodeUnknown      ErrorCode = 0x00
	ErrorCodeBusy         ErrorCode = 0x01
	ErrorCodeInvalidTrain ErrorCode = 0x02
	ErrorCodeOverflow     ErrorCode = 0x03
	ErrorCodeUnsupported  ErrorCode = 0x04
)

// DefaultCarrier is the carrier frequency used when none is configured.
const DefaultCarrier = 38_000
