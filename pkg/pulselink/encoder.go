// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encode encodes a Packet to wire format, including framing and byte
// stuffing.
func Encode(p *Packet) ([]byte, error) {
	return EncodeValues(p.Type(), p.Map())
}

// MustEncode is Encode for packets built by this package's constructors.
// Panics on encoding error.
func MustEncode(p *Packet) []byte {
	data, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("pulselink: encode error: %v", err))
	}
	return data
}

// EncodeValues creates a complete wire-formatted PulseLink packet.
func EncodeValues(msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	cborPayload, err := encodeCBORPayload(msgType, payloadMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}

	if len(cborPayload) > MaxPayloadSize {
		return nil, fmt.Errorf("CBOR payload too large: %d bytes (max %d)", len(cborPayload), MaxPayloadSize)
	}

	// length (little-endian) + payload is what gets CRC'd and stuffed
	data := make([]byte, 2, 2+len(cborPayload)+2)
	binary.LittleEndian.PutUint16(data, uint16(len(cborPayload)))
	data = append(data, cborPayload...)

	// CRC is big-endian
	crc := CalculateCRC(data)
	data = append(data, byte(crc>>8), byte(crc&0xFF))

	stuffed := stuffBytes(data)

	packet := make([]byte, 0, len(stuffed)+2)
	packet = append(packet, StartByte)
	packet = append(packet, stuffed...)
	packet = append(packet, EndByte)

	return packet, nil
}

// encodeCBORPayload creates the CBOR-encoded payload for a message.
func encodeCBORPayload(msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	var msg interface{}
	if len(payloadMap) == 0 {
		msg = []interface{}{uint64(msgType), nil}
	} else {
		msg = []interface{}{uint64(msgType), payloadMap}
	}
	return cbor.Marshal(msg)
}

// stuffBytes applies byte stuffing to escape special bytes.
// Special bytes (START, END, ESC) are replaced with ESC + (byte XOR EscXor).
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			result = append(result, EscByte, b^EscXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}

// UnstuffBytes removes byte stuffing from escaped data.
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false

	for _, b := range data {
		if escapeNext {
			result = append(result, b^EscXor)
			escapeNext = false
		} else if b == EscByte {
			escapeNext = true
		} else {
			result = append(result, b)
		}
	}

	if escapeNext {
		return nil, fmt.Errorf("incomplete escape sequence at end of data")
	}
	return result, nil
}
