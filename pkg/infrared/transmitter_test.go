// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"reflect"
	"testing"
)

// recordingPin records every level change with its timestamp
type recordingPin struct {
	now    uint32
	levels []bool
	times  []uint32
	err    error
}

func (p *recordingPin) Set(active bool) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, active)
	p.times = append(p.times, p.now)
	return nil
}

func TestTransmitter_ReproducesTrain(t *testing.T) {
	const rate = 1_000_000
	enc := NewNecEncoder(rate)
	cmd := NecCommand{Addr: 0x12, Cmd: 0x34}
	want := encode[NecCommand](t, enc, cmd)

	tx := NewTransmitter[NecCommand](enc)
	if err := tx.Load(cmd); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(tx.Pulses(), want) {
		t.Fatalf("loaded train differs from encoder output")
	}

	pin := &recordingPin{}
	for ts := uint32(1); tx.Busy(); ts++ {
		pin.now = ts
		if err := tx.Drive(ts, pin); err != nil {
			t.Fatalf("Drive: %v", err)
		}
		if ts > 200_000 {
			t.Fatal("transmitter never finished")
		}
	}

	if len(pin.levels) != len(want) {
		t.Fatalf("got %d level changes, want %d", len(pin.levels), len(want))
	}
	for i := range pin.levels {
		if pin.levels[i] != (i%2 == 0) {
			t.Fatalf("change %d has level %v", i, pin.levels[i])
		}
	}
	// The first change asserts immediately; the rest are spaced by the
	// durations of the train.
	for i := 1; i < len(pin.times); i++ {
		if got := pin.times[i] - pin.times[i-1]; got != want[i] {
			t.Errorf("duration %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestTransmitter_LoopbackDecode(t *testing.T) {
	const rate = 40_000
	enc := NewRc6Encoder(rate)
	tx := NewTransmitter[Rc6Command](enc)
	rx := NewReceiver[Rc6Command](NewRc6Decoder(rate))

	cmd := Rc6Command{Addr: 0x80, Cmd: 0x01, Toggle: true}
	if err := tx.Load(cmd); err != nil {
		t.Fatal(err)
	}

	var got []Rc6Command
	level := false
	for ts := uint32(1000); tx.Busy(); ts++ {
		if l := tx.Tick(ts); l != level {
			level = l
			if c, ok, err := rx.Edge(level, ts); err != nil {
				t.Fatalf("decode: %v", err)
			} else if ok {
				got = append(got, c)
			}
		}
	}
	if !reflect.DeepEqual(got, []Rc6Command{cmd}) {
		t.Errorf("loopback decoded %+v, want %+v", got, cmd)
	}
}

func TestTransmitter_LoadWhileBusy(t *testing.T) {
	tx := NewTransmitter[NecCommand](NewNecEncoder(1_000_000))
	if err := tx.Load(NecCommand{Addr: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Load(NecCommand{Addr: 2}); !errors.Is(err, ErrWouldBlock) {
		t.Errorf("second Load error = %v, want ErrWouldBlock", err)
	}

	for ts := uint32(0); tx.Busy(); ts += 10 {
		tx.Tick(ts)
	}
	if tx.Tick(1 << 30) {
		t.Error("idle transmitter should not assert the output")
	}
	if err := tx.Load(NecCommand{Addr: 2}); err != nil {
		t.Errorf("Load after completion: %v", err)
	}
}

func TestTransmitter_PinError(t *testing.T) {
	pinErr := errors.New("pwm disabled")
	tx := NewTransmitter[NecCommand](NewNecEncoder(1_000_000))
	if err := tx.Load(NecCommand{}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Drive(1, &recordingPin{err: pinErr}); err != pinErr {
		t.Errorf("Drive error = %v, want %v", err, pinErr)
	}
}

func TestTransmitter_MitsubishiFitsBuffer(t *testing.T) {
	tx := NewTransmitter[MitsubishiCommand](NewMitsubishiEncoder(1_000_000))
	if err := tx.Load(NewMitsubishiCommand(true, MitsubishiCool, 24, 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(tx.Pulses()); n > PulseBufferSize {
		t.Errorf("train of %d entries exceeds buffer", n)
	}
}
