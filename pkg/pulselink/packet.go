// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import "time"

// Packet represents a decoded PulseLink packet
type Packet struct {
	length      uint16
	cborPayload []byte // Raw CBOR bytes: [msg_type, payload_map]
	crc         uint16
	timestamp   time.Time

	// Cached parsed values (lazy parsing)
	msgType    uint8
	payloadMap map[int]interface{}
	parsed     bool
	parseErr   error
}

// NewPacket creates a packet from its wire fields
func NewPacket(cborPayload []byte, crc uint16) *Packet {
	return &Packet{
		length:      uint16(len(cborPayload)),
		cborPayload: cborPayload,
		crc:         crc,
		timestamp:   time.Now(),
	}
}

// NewPacketWithPayload creates a new packet from message type and payload map.
// The CBOR encoding and CRC are computed when the packet is encoded.
func NewPacketWithPayload(msgType uint8, payload map[int]interface{}) *Packet {
	return &Packet{
		msgType:    msgType,
		payloadMap: payload,
		parsed:     true,
		timestamp:  time.Now(),
	}
}

// ensureParsed parses the CBOR payload if not already done
func (p *Packet) ensureParsed() {
	if p.parsed {
		return
	}
	p.parsed = true
	if len(p.cborPayload) == 0 {
		return
	}
	p.msgType, p.payloadMap, p.parseErr = ParseCBORMessage(p.cborPayload)
}

// Length returns the packet's CBOR payload length
func (p *Packet) Length() uint16 {
	return p.length
}

// Type returns the packet's message type (parsed from CBOR)
func (p *Packet) Type() uint8 {
	p.ensureParsed()
	return p.msgType
}

// Payload returns the raw CBOR payload bytes
func (p *Packet) Payload() []byte {
	return p.cborPayload
}

// Map returns the decoded CBOR payload map (nil for empty payloads)
func (p *Packet) Map() map[int]interface{} {
	p.ensureParsed()
	return p.payloadMap
}

// ParseError returns any error from parsing the CBOR payload
func (p *Packet) ParseError() error {
	p.ensureParsed()
	return p.parseErr
}

// CRC returns the packet's CRC value
func (p *Packet) CRC() uint16 {
	return p.crc
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// SampleRate returns the tick rate of a PULSE_TRAIN or TRANSMIT packet
func (p *Packet) SampleRate() (uint32, bool) {
	v, ok := GetMapUint(p.Map(), KeySampleRate)
	if !ok || v > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(v), true
}

// Pulses returns the durations of a PULSE_TRAIN or TRANSMIT packet
func (p *Packet) Pulses() ([]uint32, bool) {
	return GetMapUintSlice(p.Map(), KeyPulses)
}

// Carrier returns the carrier frequency of a TRANSMIT packet
func (p *Packet) Carrier() (uint32, bool) {
	if p.Type() != MsgTransmit {
		return 0, false
	}
	v, ok := GetMapUint(p.Map(), KeyCarrier)
	return uint32(v), ok
}

// CaptureTime returns the probe timestamp of a PULSE_TRAIN packet
func (p *Packet) CaptureTime() (time.Duration, bool) {
	if p.Type() != MsgPulseTrain {
		return 0, false
	}
	us, ok := GetMapUint(p.Map(), KeyTimestamp)
	return time.Duration(us) * time.Microsecond, ok
}

// IsError returns true for ERROR packets
func (p *Packet) IsError() bool {
	return p.Type() == MsgError
}
