// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

// Packet builder functions. These wrap NewPacketWithPayload with the payload
// keys each message uses.

// NewPing creates a PING packet (0x01). The probe answers with PONG.
func NewPing() *Packet {
	return NewPacketWithPayload(MsgPing, nil)
}

// NewPong creates a PONG packet (0x02) carrying the probe uptime.
func NewPong(uptimeMs uint64) *Packet {
	return NewPacketWithPayload(MsgPong, map[int]interface{}{
		KeyUptime: uptimeMs,
	})
}

// NewDeviceInfo creates a DEVICE_INFO packet (0x03), sent by a probe after
// reset and in reply to PING when it has not announced itself yet.
func NewDeviceInfo(name string, sampleRate, carrier uint32, firmware string) *Packet {
	return NewPacketWithPayload(MsgDeviceInfo, map[int]interface{}{
		KeyName:        name,
		KeyInfoRate:    uint64(sampleRate),
		KeyInfoCarrier: uint64(carrier),
		KeyFirmware:    firmware,
	})
}

// NewDeviceInfoRequest creates an empty DEVICE_INFO packet, which asks the
// probe to send its own.
func NewDeviceInfoRequest() *Packet {
	return NewPacketWithPayload(MsgDeviceInfo, nil)
}

// NewPulseTrain creates a PULSE_TRAIN packet (0x10). pulses uses the encoder
// buffer layout: the idle time before the first mark, then marks and spaces.
func NewPulseTrain(sampleRate uint32, pulses []uint32, timestampUs uint64) *Packet {
	return NewPacketWithPayload(MsgPulseTrain, map[int]interface{}{
		KeySampleRate: uint64(sampleRate),
		KeyPulses:     pulses,
		KeyTimestamp:  timestampUs,
	})
}

// NewTransmit creates a TRANSMIT packet (0x20) asking the probe to play a
// pulse train with the given carrier.
func NewTransmit(sampleRate uint32, pulses []uint32, carrier uint32) *Packet {
	return NewPacketWithPayload(MsgTransmit, map[int]interface{}{
		KeySampleRate: uint64(sampleRate),
		KeyPulses:     pulses,
		KeyCarrier:    uint64(carrier),
	})
}

// NewTransmitDone creates a TRANSMIT_DONE packet (0x21).
func NewTransmitDone(sent uint32) *Packet {
	return NewPacketWithPayload(MsgTransmitDone, map[int]interface{}{
		KeySent: uint64(sent),
	})
}

// NewError creates an ERROR packet (0xE0).
func NewError(code ErrorCode, message string) *Packet {
	return NewPacketWithPayload(MsgError, map[int]interface{}{
		KeyErrorCode:    uint64(code),
		KeyErrorMessage: message,
	})
}
