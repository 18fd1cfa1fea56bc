// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

type txState uint8

const (
	txIdle txState = iota
	txTransmit
)

// OutputPin is the carrier enable signal driven by a Transmitter, usually
// the enable of a PWM running at the carrier frequency.
type OutputPin interface {
	Set(active bool) error
}

// Transmitter plays an encoded command out from a periodic timer.
type Transmitter[C Command] struct {
	encoder  Encoder[C]
	buf      PulseBuffer
	n        int
	index    int
	state    txState
	level    bool
	lastEdge uint32
}

func NewTransmitter[C Command](enc Encoder[C]) *Transmitter[C] {
	return &Transmitter[C]{encoder: enc}
}

// Load encodes cmd and arms the transmitter. It fails with ErrWouldBlock
// while a previous command is still being sent.
func (t *Transmitter[C]) Load(cmd C) error {
	if t.state != txIdle {
		return ErrWouldBlock
	}
	n, err := t.encoder.Encode(cmd, t.buf[:])
	if err != nil {
		return err
	}
	t.n = n
	t.index = 0
	t.level = false
	t.state = txTransmit
	return nil
}

// Tick advances the transmitter to timestamp ts and returns whether the
// output should be active. The leading zero entry makes the first tick after
// Load assert the output immediately.
func (t *Transmitter[C]) Tick(ts uint32) bool {
	if t.state == txIdle {
		return false
	}
	if t.index >= t.n {
		t.state = txIdle
		t.level = false
		return false
	}
	if ts-t.lastEdge >= t.buf[t.index] {
		t.level = !t.level
		t.index++
		t.lastEdge = ts
		if t.index == t.n && !t.level {
			t.state = txIdle
		}
	}
	return t.level
}

// Drive runs Tick and updates the pin when the level changes.
func (t *Transmitter[C]) Drive(ts uint32, pin OutputPin) error {
	prev := t.level
	level := t.Tick(ts)
	if level == prev {
		return nil
	}
	return pin.Set(level)
}

// Busy reports whether a transmission is in progress.
func (t *Transmitter[C]) Busy() bool {
	return t.state != txIdle
}

// Pulses returns the currently loaded pulse train.
func (t *Transmitter[C]) Pulses() []uint32 {
	return t.buf[:t.n]
}
