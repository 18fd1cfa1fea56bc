// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"fmt"
	"time"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatMessageType(p.Type()), p.Type(), p.length)
	if err := p.ParseError(); err != nil {
		return result + fmt.Sprintf("  Parse error: %v\n", err)
	}
	return result + FormatPayloadMap(p.Type(), p.Map())
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	case MsgDeviceInfo:
		return "DEVICE_INFO"
	case MsgPulseTrain:
		return "PULSE_TRAIN"
	case MsgTransmit:
		return "TRANSMIT"
	case MsgTransmitDone:
		return "TRANSMIT_DONE"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FormatPayloadMap formats the CBOR payload map based on message type
func FormatPayloadMap(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgPing:
		return "  (no payload)\n"

	case MsgPong:
		uptime, _ := GetMapUint(m, KeyUptime)
		return fmt.Sprintf("  Uptime: %s\n", formatDuration(uptime))

	case MsgDeviceInfo:
		name, _ := GetMapString(m, KeyName)
		rate, _ := GetMapUint(m, KeyInfoRate)
		carrier, _ := GetMapUint(m, KeyInfoCarrier)
		firmware, _ := GetMapString(m, KeyFirmware)
		return fmt.Sprintf("  Device: %s, Firmware: %s, Sample Rate: %d Hz, Carrier: %d Hz\n",
			name, firmware, rate, carrier)

	case MsgPulseTrain, MsgTransmit:
		rate, _ := GetMapUint(m, KeySampleRate)
		pulses, _ := GetMapUintSlice(m, KeyPulses)
		extra, _ := GetMapUint(m, KeyTimestamp)
		label := "Time"
		unit := "us"
		if msgType == MsgTransmit {
			label, unit = "Carrier", "Hz"
		}
		return fmt.Sprintf("  Sample Rate: %d Hz, Entries: %d, %s: %d %s\n  %s\n",
			rate, len(pulses), label, extra, unit, infrared.FormatPulses(pulses, uint32(rate)))

	case MsgTransmitDone:
		sent, _ := GetMapUint(m, KeySent)
		return fmt.Sprintf("  Sent: %d entries\n", sent)

	case MsgError:
		code, _ := GetMapUint(m, KeyErrorCode)
		msg, _ := GetMapString(m, KeyErrorMessage)
		return fmt.Sprintf("  Error: %s (%d) %s\n", formatErrorCode(ErrorCode(code)), code, msg)

	default:
		return fmt.Sprintf("  Payload: %v\n", m)
	}
}

func formatErrorCode(code ErrorCode) string {
	switch code {
	case ErrorCodeBusy:
		return "BUSY"
	case ErrorCodeInvalidTrain:
		return "INVALID_TRAIN"
	case ErrorCodeOverflow:
		return "OVERFLOW"
	case ErrorCodeUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

func formatDuration(ms uint64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
