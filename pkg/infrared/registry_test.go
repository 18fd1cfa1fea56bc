// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

// vector is one entry of testdata/vectors.yaml
type vector struct {
	Name     string   `yaml:"name"`
	Protocol string   `yaml:"protocol"`
	Address  uint32   `yaml:"address"`
	Command  uint32   `yaml:"command"`
	Bits     uint64   `yaml:"bits"`
	Length   int      `yaml:"length"`
	Prefix   []uint32 `yaml:"prefix"`
}

func loadVectors(t *testing.T) []vector {
	t.Helper()
	data, err := os.ReadFile("testdata/vectors.yaml")
	if err != nil {
		t.Fatalf("read vectors: %v", err)
	}
	var vectors []vector
	if err := yaml.Unmarshal(data, &vectors); err != nil {
		t.Fatalf("parse vectors: %v", err)
	}
	if len(vectors) == 0 {
		t.Fatal("no vectors loaded")
	}
	return vectors
}

// ============================================================================
// Protocol names
// ============================================================================

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		name string
		want Protocol
	}{
		{"nec", ProtocolNEC},
		{"NEC", ProtocolNEC},
		{" rc6 ", ProtocolRC6},
		{"samsung", ProtocolNECSamsung},
		{"nec-samsung", ProtocolNECSamsung},
		{"Apple", ProtocolNECApple},
		{"mitsubishi", ProtocolMitsubishi},
	}
	for _, tt := range tests {
		got, err := ParseProtocol(tt.name)
		if err != nil {
			t.Errorf("ParseProtocol(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProtocol(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := ParseProtocol("sony"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseProtocol(sony) error = %v, want ErrUnsupported", err)
	}
}

func TestProtocol_NamesRoundTrip(t *testing.T) {
	for _, p := range Protocols() {
		got, err := ParseProtocol(p.String())
		if err != nil || got != p {
			t.Errorf("ParseProtocol(%q) = %v, %v", p.String(), got, err)
		}
	}
	if got := Protocol(200).String(); got != "unknown(200)" {
		t.Errorf("unknown protocol String() = %q", got)
	}
}

// ============================================================================
// Registry
// ============================================================================

func TestNewAnyDecoder_AllProtocols(t *testing.T) {
	for _, p := range Protocols() {
		d, err := NewAnyDecoder(p, 1_000_000)
		if err != nil {
			t.Errorf("NewAnyDecoder(%v): %v", p, err)
			continue
		}
		if d.Protocol() != p {
			t.Errorf("decoder for %v reports %v", p, d.Protocol())
		}
		if d.Status() != StatusIdle {
			t.Errorf("new %v decoder status = %v", p, d.Status())
		}
	}
	if _, err := NewAnyDecoder(ProtocolUnknown, 1_000_000); !errors.Is(err, ErrUnsupported) {
		t.Errorf("unknown protocol error = %v", err)
	}
	if _, err := NewAnyEncoder(ProtocolUnknown, 1_000_000); !errors.Is(err, ErrUnsupported) {
		t.Errorf("unknown protocol error = %v", err)
	}
}

func TestNewMultiReceiverFor(t *testing.T) {
	m, err := NewMultiReceiverFor(40_000, ProtocolNEC, ProtocolRC5)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Decoders()) != 2 {
		t.Errorf("got %d decoders, want 2", len(m.Decoders()))
	}
	if _, err := NewMultiReceiverFor(40_000, ProtocolNEC, Protocol(99)); err == nil {
		t.Error("expected error for unknown protocol")
	}
}

func TestAnyEncoder_ProtocolMismatch(t *testing.T) {
	enc, err := NewAnyEncoder(ProtocolNEC, 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	var buf PulseBuffer
	if _, err := enc.Encode(AnyCommand{Protocol: ProtocolRC5}, buf[:]); err == nil {
		t.Error("NEC encoder accepted an RC5 command")
	}
}

// ============================================================================
// Reference vectors
// ============================================================================

func TestEncodeAny_Vectors(t *testing.T) {
	for _, v := range loadVectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			p, err := ParseProtocol(v.Protocol)
			if err != nil {
				t.Fatal(err)
			}
			cmd := AnyCommand{Protocol: p, Address: v.Address, Command: v.Command, Bits: v.Bits}

			var buf PulseBuffer
			n, err := EncodeAny(cmd, 1_000_000, buf[:])
			if err != nil {
				t.Fatalf("EncodeAny: %v", err)
			}
			pulses := buf[:n]
			if v.Length != 0 && n != v.Length {
				t.Errorf("train length = %d, want %d", n, v.Length)
			}
			if len(pulses) < len(v.Prefix) || !reflect.DeepEqual(pulses[:len(v.Prefix)], v.Prefix) {
				t.Errorf("train starts %v, want %v", pulses[:min(n, len(v.Prefix))], v.Prefix)
			}

			d, err := NewAnyDecoder(p, 1_000_000)
			if err != nil {
				t.Fatal(err)
			}
			var got []AnyCommand
			NewMultiReceiver(d).Replay(pulses, func(c AnyCommand) { got = append(got, c) })
			if len(got) == 0 {
				t.Fatal("vector did not decode")
			}
			if got[0].Bits != v.Bits {
				t.Errorf("decoded bits = 0x%X, want 0x%X", got[0].Bits, v.Bits)
			}
			if p != ProtocolMitsubishi && (got[0].Address != v.Address || got[0].Command != v.Command) {
				t.Errorf("decoded addr=0x%X cmd=0x%X, want addr=0x%X cmd=0x%X",
					got[0].Address, got[0].Command, v.Address, v.Command)
			}
		})
	}
}

func TestEncodeAny_RoundTripAcrossRates(t *testing.T) {
	cmds := []AnyCommand{
		ToAny(NecCommand{Addr: 0x10, Cmd: 0x20}),
		ToAny(NecSamsungCommand{Addr: 0x07, Cmd: 0x99}),
		ToAny(Nec16Command{Addr: 0xBEEF, Cmd: 0x42}),
		ToAny(NecAppleCommand{Page: 0x03, Cmd: 0x11, DeviceID: 0x22}),
		ToAny(NecRawCommand{Raw: 0x12345678}),
		ToAny(Rc5Command{Addr: 0x1F, Cmd: 0x7F, Toggle: true}),
		ToAny(Rc6Command{Addr: 0xA5, Cmd: 0x5A, Toggle: true}),
		ToAny(SbpCommand{Addr: 0xABCD, Cmd: 0x77}),
		ToAny(NewDenonCommand(0x1234, 0x5678)),
		ToAny(NewMitsubishiCommand(true, MitsubishiHeat, 22, 3)),
	}

	for _, rate := range testRates {
		for _, want := range cmds {
			var buf PulseBuffer
			n, err := EncodeAny(want, rate, buf[:])
			if err != nil {
				t.Fatalf("%d Hz %v: %v", rate, want.Protocol, err)
			}
			d, err := NewAnyDecoder(want.Protocol, rate)
			if err != nil {
				t.Fatal(err)
			}
			var got []AnyCommand
			NewMultiReceiver(d).Replay(buf[:n], func(c AnyCommand) { got = append(got, c) })
			if len(got) == 0 {
				t.Errorf("%d Hz %v: nothing decoded", rate, want.Protocol)
				continue
			}
			if got[0] != want {
				t.Errorf("%d Hz: decoded %+v, want %+v", rate, got[0], want)
			}
		}
	}
}
