// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"reflect"
	"testing"
)

func TestRc5Pack(t *testing.T) {
	tests := []struct {
		name string
		cmd  Rc5Command
		bits uint16
	}{
		{"zero", Rc5Command{}, 0x3000},
		{"addr 5 cmd 0x35", Rc5Command{Addr: 5, Cmd: 0x35}, 0x3175},
		{"toggle", Rc5Command{Addr: 0x1F, Cmd: 0x3F, Toggle: true}, 0x3FFF},
		{"extended command", Rc5Command{Addr: 1, Cmd: 0x40}, 0x2040},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.pack(); got != tt.bits {
				t.Errorf("pack() = 0x%04X, want 0x%04X", got, tt.bits)
			}
			if got := unpackRc5(tt.bits); got != tt.cmd {
				t.Errorf("unpackRc5(0x%04X) = %+v, want %+v", tt.bits, got, tt.cmd)
			}
		})
	}
}

func TestRc5Encoder_KnownTrain(t *testing.T) {
	pulses := encode[Rc5Command](t, NewRc5Encoder(1_000_000), Rc5Command{})

	// 1 1 0 00000 000000: the first two ones give a single unit mark and
	// space, then the toggle bit merges with the second start bit's mark.
	if len(pulses) != 26 {
		t.Fatalf("train length = %d, want 26", len(pulses))
	}
	want := []uint32{0, 889, 889, 1778, 889, 889}
	if !reflect.DeepEqual(pulses[:6], want) {
		t.Errorf("train starts %v, want %v", pulses[:6], want)
	}
	if pulses[len(pulses)-1] != 889 {
		t.Errorf("train should end on a single unit mark, got %d", pulses[len(pulses)-1])
	}
}

func TestRc5Decoder_RoundTripAll(t *testing.T) {
	for _, rate := range []uint32{20_000, 1_000_000} {
		enc := NewRc5Encoder(rate)
		rx := NewReceiver[Rc5Command](NewRc5Decoder(rate))
		var buf PulseBuffer

		for _, toggle := range []bool{false, true} {
			for addr := uint8(0); addr < 32; addr++ {
				for cmd := uint8(0); cmd < 128; cmd++ {
					want := Rc5Command{Addr: addr, Cmd: cmd, Toggle: toggle}
					n, err := enc.Encode(want, buf[:])
					if err != nil {
						t.Fatalf("Encode(%+v): %v", want, err)
					}
					var got []Rc5Command
					for i, dt := range buf[:n] {
						if c, ok, _ := rx.Event(i%2 == 0, dt); ok {
							got = append(got, c)
						}
					}
					if len(got) != 1 || got[0] != want {
						t.Fatalf("%d Hz round trip %+v: got %+v", rate, want, got)
					}
				}
			}
		}
	}
}

func TestRc5Decoder_RepeatDetection(t *testing.T) {
	enc := NewRc5Encoder(1_000_000)
	held := encode[Rc5Command](t, enc, Rc5Command{Addr: 3, Cmd: 12, Toggle: true})
	next := encode[Rc5Command](t, enc, Rc5Command{Addr: 3, Cmd: 12, Toggle: false})

	cmds := decodeAll[Rc5Command](NewRc5Decoder(1_000_000), concatTrains(113_000, held, held, next))
	want := []Rc5Command{
		{Addr: 3, Cmd: 12, Toggle: true},
		{Addr: 3, Cmd: 12, Toggle: true, Repeat: true},
		{Addr: 3, Cmd: 12, Toggle: false},
	}
	if !reflect.DeepEqual(cmds, want) {
		t.Errorf("decoded %+v, want %+v", cmds, want)
	}
}

func TestRc5Decoder_BadPulseResets(t *testing.T) {
	d := NewRc5Decoder(1_000_000)
	if got := d.Event(true, 100_000); got != StatusReceiving {
		t.Fatalf("rising edge from idle: status %v, want receiving", got)
	}
	if got := d.Event(false, 889); got != StatusReceiving {
		t.Fatalf("one unit mark: status %v, want receiving", got)
	}
	// Three units fits no category; the falling edge cannot start a frame.
	if got := d.Event(false, 2667); got != StatusIdle {
		t.Errorf("bad pulse: status %v, want idle", got)
	}
	if d.Err() != nil {
		t.Errorf("RC5 should reset without an error, got %v", d.Err())
	}

	// A frame following the bad pulse still decodes.
	pulses := encode[Rc5Command](t, NewRc5Encoder(1_000_000), Rc5Command{Addr: 9, Cmd: 9})
	cmds := decodeAll[Rc5Command](d, pulses)
	if len(cmds) != 1 || cmds[0].Addr != 9 || cmds[0].Cmd != 9 {
		t.Errorf("decoded %+v after reset", cmds)
	}
}
