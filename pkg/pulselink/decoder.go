// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"fmt"
	"time"
)

// Decoder implements the PulseLink packet decoder state machine
type Decoder struct {
	state       int
	buffer      []byte // length bytes + payload, the CRC input
	bufferIndex int
	escapeNext  bool
	packet      *Packet
	rawBuffer   []byte // Accumulate raw bytes including framing
}

// NewDecoder creates a new protocol decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		buffer:    make([]byte, MaxPacketSize),
		rawBuffer: make([]byte, 0, MaxPacketSize*2),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.bufferIndex = 0
	d.escapeNext = false
	d.packet = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the accumulated raw bytes since the last packet
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the packet is incomplete.
// Returns an error if decoding fails; the decoder then waits for the next
// START byte.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	d.rawBuffer = append(d.rawBuffer, b)

	// Handle byte stuffing
	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}

	escaped := d.escapeNext
	d.escapeNext = false
	if escaped {
		b ^= EscXor
	} else {
		switch b {
		case StartByte:
			d.Reset()
			d.rawBuffer = append(d.rawBuffer, StartByte)
			d.state = stateLength1
			return nil, nil
		case EndByte:
			return d.finish()
		}
	}

	switch d.state {
	case stateIdle:
		// Waiting for START byte, line noise is not kept
		d.rawBuffer = d.rawBuffer[:0]
		return nil, nil

	case stateLength1:
		d.packet = &Packet{length: uint16(b)}
		d.push(b)
		d.state = stateLength2
		return nil, nil

	case stateLength2:
		d.packet.length |= uint16(b) << 8
		if d.packet.length > MaxPayloadSize {
			length := d.packet.length
			d.Reset()
			return nil, fmt.Errorf("invalid length: %d (max %d)", length, MaxPayloadSize)
		}
		d.packet.cborPayload = make([]byte, 0, d.packet.length)
		d.push(b)
		if d.packet.length == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		if d.bufferIndex >= len(d.buffer) {
			d.Reset()
			return nil, fmt.Errorf("buffer overflow: packet exceeds max size")
		}
		d.packet.cborPayload = append(d.packet.cborPayload, b)
		d.push(b)
		if len(d.packet.cborPayload) >= int(d.packet.length) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.packet.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.packet.crc |= uint16(b)
		d.state = stateEnd
		return nil, nil

	default:
		// Extra bytes between CRC and END
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("unexpected byte 0x%02X in state %d", b, state)
	}
}

func (d *Decoder) push(b byte) {
	d.buffer[d.bufferIndex] = b
	d.bufferIndex++
}

// finish validates the packet when the END byte arrives
func (d *Decoder) finish() (*Packet, error) {
	if d.state != stateEnd {
		state := d.state
		d.Reset()
		if state == stateIdle {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected END byte in state %d", state)
	}

	packet := d.packet
	calculatedCRC := CalculateCRC(d.buffer[:d.bufferIndex])
	d.Reset()

	if packet.crc != calculatedCRC {
		return nil, fmt.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", calculatedCRC, packet.crc)
	}
	packet.timestamp = time.Now()
	return packet, nil
}
