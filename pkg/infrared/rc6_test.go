// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"reflect"
	"testing"
)

func TestRc6Encoder_KnownTrain(t *testing.T) {
	pulses := encode[Rc6Command](t, NewRc6Encoder(1_000_000), Rc6Command{Addr: 0, Cmd: 0x0C})

	// Leader, start bit, three zero mode bits, then the double length
	// toggle bit set to zero.
	want := []uint32{0, 2664, 888, 444, 888, 444, 444, 444, 444, 444, 888, 888}
	if !reflect.DeepEqual(pulses[:len(want)], want) {
		t.Errorf("train starts %v, want %v", pulses[:len(want)], want)
	}
	if len(pulses)%2 != 0 {
		t.Errorf("train length %d should be even", len(pulses))
	}
}

func TestRc6Decoder_RoundTripAll(t *testing.T) {
	for _, rate := range []uint32{20_000, 1_000_000} {
		enc := NewRc6Encoder(rate)
		rx := NewReceiver[Rc6Command](NewRc6Decoder(rate))
		var buf PulseBuffer

		for addr := 0; addr < 256; addr++ {
			for cmd := 0; cmd < 256; cmd++ {
				want := Rc6Command{Addr: uint8(addr), Cmd: uint8(cmd), Toggle: (addr+cmd)%2 == 1}
				n, err := enc.Encode(want, buf[:])
				if err != nil {
					t.Fatalf("Encode(%+v): %v", want, err)
				}
				var got []Rc6Command
				for i, dt := range buf[:n] {
					c, ok, err := rx.Event(i%2 == 0, dt)
					if err != nil {
						t.Fatalf("%d Hz decode %+v: %v", rate, want, err)
					}
					if ok {
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

func TestRc6Decoder_RepeatDetection(t *testing.T) {
	enc := NewRc6Encoder(1_000_000)
	frame := encode[Rc6Command](t, enc, Rc6Command{Addr: 0x04, Cmd: 0x10})

	cmds := decodeAll[Rc6Command](NewRc6Decoder(1_000_000), concatTrains(80_000, frame, frame))
	want := []Rc6Command{
		{Addr: 0x04, Cmd: 0x10},
		{Addr: 0x04, Cmd: 0x10, Repeat: true},
	}
	if !reflect.DeepEqual(cmds, want) {
		t.Errorf("decoded %+v, want %+v", cmds, want)
	}
}

func TestRc6Decoder_EdgeAtInvalidPosition(t *testing.T) {
	d := NewRc6Decoder(1_000_000)

	// Leader, start bit, then a space ending inside the mode field and a
	// mark ending at clock 17, between the mode field and the toggle mid.
	events := []struct {
		rising bool
		dt     uint32
		want   Status
	}{
		{true, 50_000, StatusReceiving},
		{false, 2664, StatusReceiving},
		{true, 888, StatusReceiving},
		{false, 444, StatusReceiving},
		{true, 2664, StatusReceiving},
		{false, 888, StatusError},
	}
	for i, ev := range events {
		if got := d.Event(ev.rising, ev.dt); got != ev.want {
			t.Fatalf("event %d: status %v, want %v", i, got, ev.want)
		}
	}
	if !errors.Is(d.Err(), ErrClassification) {
		t.Errorf("Err() = %v, want classification error", d.Err())
	}
}

func TestRc6Decoder_BadLeaderResets(t *testing.T) {
	d := NewRc6Decoder(1_000_000)
	d.Event(true, 10_000)
	if got := d.Event(false, 889); got != StatusIdle {
		t.Errorf("short leader: status %v, want idle", got)
	}
	if d.Err() != nil {
		t.Errorf("bad leader should not raise an error, got %v", d.Err())
	}
}
