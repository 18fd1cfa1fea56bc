// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"reflect"
	"strings"
	"testing"
)

func TestFormatProtocol(t *testing.T) {
	if got := FormatProtocol(ProtocolNECApple); got != "NEC_APPLE" {
		t.Errorf("FormatProtocol(apple) = %q", got)
	}
	if got := FormatProtocol(Protocol(77)); got != "UNKNOWN_77" {
		t.Errorf("FormatProtocol(77) = %q", got)
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{NecCommand{Addr: 0x07, Cmd: 0x2C}, "NEC addr=0x07 cmd=0x2C"},
		{NecCommand{Addr: 0x07, Cmd: 0x2C, Repeat: true}, "NEC addr=0x07 cmd=0x2C (repeat)"},
		{NecRawCommand{Raw: 0xDEADBEEF}, "NEC_RAW raw=0xDEADBEEF"},
		{Rc5Command{Addr: 5, Cmd: 0x35, Toggle: true}, "RC5 addr=0x05 cmd=0x35 toggle=true"},
		{NecAppleCommand{Page: 0x0E, Cmd: 0x05, DeviceID: 0x9E}, "NEC_APPLE page=0x0E cmd=0x05 device=0x9E"},
		{NewDenonCommand(0x2A4C, 0x0402), "DENON addr=0x2A4C cmd=0x00000402"},
	}
	for _, tt := range tests {
		if got := FormatCommand(tt.cmd); got != tt.want {
			t.Errorf("FormatCommand(%+v) = %q, want %q", tt.cmd, got, tt.want)
		}
	}

	got := FormatCommand(NewMitsubishiCommand(true, MitsubishiCool, 24, 2))
	for _, want := range []string{"MITSUBISHI", "power=on", "mode=cool", "temp=24C", "fan=2"} {
		if !strings.Contains(got, want) {
			t.Errorf("Mitsubishi format %q missing %q", got, want)
		}
	}
}

func TestFormatAnyCommand(t *testing.T) {
	got := FormatAnyCommand(ToAny(SbpCommand{Addr: 0x0707, Cmd: 0x01}))
	want := "SBP addr=0x707 cmd=0x01 bits=0xFE0100707"
	if got != want {
		t.Errorf("FormatAnyCommand = %q, want %q", got, want)
	}
}

func TestFormatPulses(t *testing.T) {
	pulses := []uint32{0, 9000, 4500, 560}
	if got := FormatPulses(pulses, 1_000_000); got != "+9000 -4500 +560" {
		t.Errorf("FormatPulses = %q", got)
	}
	// 40 kHz ticks are 25us each.
	if got := FormatPulses([]uint32{0, 4, 2}, 40_000); got != "+100 -50" {
		t.Errorf("FormatPulses at 40 kHz = %q", got)
	}
	if got := FormatPulses(pulses, 0); got != "" {
		t.Errorf("zero rate should format empty, got %q", got)
	}
}

func TestParsePulses(t *testing.T) {
	tests := []struct {
		text string
		rate uint32
		want []uint32
	}{
		{"+9000 -4500 +560", 1_000_000, []uint32{0, 9000, 4500, 560}},
		{"0 9000 4500 560", 1_000_000, []uint32{0, 9000, 4500, 560}},
		{"  100\n50\t100 ", 40_000, []uint32{0, 4, 2, 4}},
		{"", 1_000_000, []uint32{0}},
	}
	for _, tt := range tests {
		got, err := ParsePulses(tt.text, tt.rate)
		if err != nil {
			t.Errorf("ParsePulses(%q): %v", tt.text, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePulses(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if _, err := ParsePulses("+9000 -abc", 1_000_000); err == nil {
		t.Error("expected error for non-numeric entry")
	}
}

func TestFormatPulses_ParseRoundTrip(t *testing.T) {
	pulses := encode[Rc6Command](t, NewRc6Encoder(1_000_000), Rc6Command{Addr: 0x12, Cmd: 0x34})
	got, err := ParsePulses(FormatPulses(pulses, 1_000_000), 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, pulses) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, pulses)
	}
}
