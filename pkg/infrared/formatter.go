// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatProtocol returns the display name of a protocol
func FormatProtocol(p Protocol) string {
	switch p {
	case ProtocolNEC:
		return "NEC"
	case ProtocolNECSamsung:
		return "NEC_SAMSUNG"
	case ProtocolNEC16:
		return "NEC16"
	case ProtocolNECApple:
		return "NEC_APPLE"
	case ProtocolNECRaw:
		return "NEC_RAW"
	case ProtocolRC5:
		return "RC5"
	case ProtocolRC6:
		return "RC6"
	case ProtocolSBP:
		return "SBP"
	case ProtocolDenon:
		return "DENON"
	case ProtocolMitsubishi:
		return "MITSUBISHI"
	default:
		return fmt.Sprintf("UNKNOWN_%d", uint8(p))
	}
}

// FormatCommand formats a typed command with its protocol-specific fields
func FormatCommand(cmd Command) string {
	var fields string
	switch c := cmd.(type) {
	case NecAppleCommand:
		fields = fmt.Sprintf("page=0x%02X cmd=0x%02X device=0x%02X", c.Page, c.Cmd, c.DeviceID)
	case NecRawCommand:
		fields = fmt.Sprintf("raw=0x%08X", c.Raw)
	case Rc5Command:
		fields = fmt.Sprintf("addr=0x%02X cmd=0x%02X toggle=%t", c.Addr, c.Cmd, c.Toggle)
	case Rc6Command:
		fields = fmt.Sprintf("addr=0x%02X cmd=0x%02X toggle=%t", c.Addr, c.Cmd, c.Toggle)
	case DenonCommand:
		fields = fmt.Sprintf("addr=0x%04X cmd=0x%08X", c.Address(), c.Command())
	case MitsubishiCommand:
		power := "off"
		if c.Power() {
			power = "on"
		}
		fields = fmt.Sprintf("power=%s mode=%s temp=%dC fan=%d checksum=0x%02X",
			power, c.Mode(), c.Temperature(), c.Fan(), c.Bytes[mitsuChecksumIdx])
	default:
		fields = fmt.Sprintf("addr=0x%02X cmd=0x%02X", cmd.Address(), cmd.Command())
	}

	result := FormatProtocol(cmd.Protocol()) + " " + fields
	if cmd.IsRepeat() {
		result += " (repeat)"
	}
	return result
}

// FormatAnyCommand formats a type-erased command
func FormatAnyCommand(cmd AnyCommand) string {
	result := fmt.Sprintf("%s addr=0x%02X cmd=0x%02X bits=0x%X",
		FormatProtocol(cmd.Protocol), cmd.Address, cmd.Command, cmd.Bits)
	if cmd.Repeat {
		result += " (repeat)"
	}
	return result
}

// FormatPulses renders a pulse train as signed microsecond durations, marks
// positive and spaces negative. The leading idle entry is skipped.
func FormatPulses(pulses []uint32, sampleRate uint32) string {
	if sampleRate == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 1; i < len(pulses); i++ {
		if i > 1 {
			sb.WriteByte(' ')
		}
		us := uint64(pulses[i]) * 1_000_000 / uint64(sampleRate)
		if i%2 == 1 {
			fmt.Fprintf(&sb, "+%d", us)
		} else {
			fmt.Fprintf(&sb, "-%d", us)
		}
	}
	return sb.String()
}

// ParsePulses reads durations in microseconds, as written by FormatPulses or
// as plain whitespace-separated numbers, and converts them to a pulse train
// at the given sample rate. Signs are optional; entries alternate between
// mark and space regardless. A leading zero entry is accepted and skipped.
func ParsePulses(text string, sampleRate uint32) ([]uint32, error) {
	fields := strings.Fields(text)
	if len(fields) > 0 && fields[0] == "0" {
		fields = fields[1:]
	}
	pulses := make([]uint32, 0, len(fields)+1)
	pulses = append(pulses, 0)
	for i, f := range fields {
		us, err := strconv.ParseUint(strings.TrimLeft(f, "+-"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		pulses = append(pulses, Scale(uint32(us), sampleRate))
	}
	return pulses, nil
}
