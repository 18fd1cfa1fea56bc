// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "iter"

// Receiver adapts a decoder to event-driven input such as an edge interrupt.
// Terminal decoder states are consumed and the decoder is reset before the
// result is returned, so the next frame can start on the following edge.
type Receiver[C Command] struct {
	decoder  Decoder[C]
	lastEdge uint32
}

func NewReceiver[C Command](d Decoder[C]) *Receiver[C] {
	return &Receiver[C]{decoder: d}
}

// Decoder returns the wrapped decoder.
func (r *Receiver[C]) Decoder() Decoder[C] {
	return r.decoder
}

// Event feeds one edge with the time spent in the previous level. It returns
// a command when a frame completes, or the decoder's error when a frame is
// rejected.
func (r *Receiver[C]) Event(rising bool, dt uint32) (C, bool, error) {
	var zero C
	switch r.decoder.Event(rising, dt) {
	case StatusDone:
		cmd, ok := r.decoder.Command()
		r.decoder.Reset()
		return cmd, ok, nil
	case StatusError:
		err := r.decoder.Err()
		r.decoder.Reset()
		return zero, false, err
	}
	return zero, false, nil
}

// Edge feeds one edge stamped with a free-running timer value. The duration
// is computed with wrapping arithmetic so counter overflow is harmless.
func (r *Receiver[C]) Edge(rising bool, ts uint32) (C, bool, error) {
	dt := ts - r.lastEdge
	r.lastEdge = ts
	return r.Event(rising, dt)
}

// Reset discards any frame in progress.
func (r *Receiver[C]) Reset() {
	r.decoder.Reset()
}

// InputPin is the level source sampled by a PollReceiver.
type InputPin interface {
	Level() (bool, error)
}

// PollReceiver samples an input pin from a periodic timer. The sample rate
// of the decoder must match the poll frequency.
type PollReceiver[C Command] struct {
	receiver Receiver[C]
	pin      InputPin
	// ActiveLow inverts the pin level. Most demodulating receivers pull
	// their output low while a carrier is present.
	ActiveLow bool

	active   bool
	tick     uint32
	lastEdge uint32
}

func NewPollReceiver[C Command](d Decoder[C], pin InputPin, activeLow bool) *PollReceiver[C] {
	return &PollReceiver[C]{
		receiver:  Receiver[C]{decoder: d},
		pin:       pin,
		ActiveLow: activeLow,
	}
}

// Poll samples the pin once and advances the tick counter. Pin errors are
// returned unmodified.
func (p *PollReceiver[C]) Poll() (C, bool, error) {
	var zero C
	p.tick++
	level, err := p.pin.Level()
	if err != nil {
		return zero, false, err
	}
	active := level != p.ActiveLow
	if active == p.active {
		return zero, false, nil
	}
	p.active = active
	dt := p.tick - p.lastEdge
	p.lastEdge = p.tick
	return p.receiver.Event(active, dt)
}

// BufferReceiver replays a recorded pulse train. Entries alternate between
// the idle time before the first mark, marks and spaces, so even indices end
// with a rising edge.
type BufferReceiver[C Command] struct {
	receiver Receiver[C]
	pulses   []uint32
	pos      int
	errs     int
}

func NewBufferReceiver[C Command](d Decoder[C], pulses []uint32) *BufferReceiver[C] {
	return &BufferReceiver[C]{
		receiver: Receiver[C]{decoder: d},
		pulses:   pulses,
	}
}

// Next decodes until the next command or the end of the buffer. Rejected
// frames are counted and skipped.
func (b *BufferReceiver[C]) Next() (C, bool) {
	for b.pos < len(b.pulses) {
		i := b.pos
		b.pos++
		cmd, ok, err := b.receiver.Event(i%2 == 0, b.pulses[i])
		if err != nil {
			b.errs++
			continue
		}
		if ok {
			return cmd, true
		}
	}
	var zero C
	return zero, false
}

// All rewinds the buffer and yields every command in it.
func (b *BufferReceiver[C]) All() iter.Seq[C] {
	return func(yield func(C) bool) {
		b.Rewind()
		for {
			cmd, ok := b.Next()
			if !ok || !yield(cmd) {
				return
			}
		}
	}
}

// Rewind restarts decoding from the first entry.
func (b *BufferReceiver[C]) Rewind() {
	b.pos = 0
	b.errs = 0
	b.receiver.Reset()
}

// Errors returns the number of frames rejected so far.
func (b *BufferReceiver[C]) Errors() int {
	return b.errs
}

// MultiReceiver runs several decoders against one edge stream. Each edge is
// delivered to every decoder; when more than one completes on the same edge
// all results are reported.
type MultiReceiver struct {
	decoders []AnyDecoder
	cmds     []AnyCommand
	errs     []error
	lastEdge uint32
}

// NewMultiReceiver creates a receiver over a fixed set of decoders.
func NewMultiReceiver(decoders ...AnyDecoder) *MultiReceiver {
	return &MultiReceiver{
		decoders: decoders,
		cmds:     make([]AnyCommand, 0, len(decoders)),
		errs:     make([]error, 0, len(decoders)),
	}
}

// Decoders returns the decoders in the order they are run.
func (m *MultiReceiver) Decoders() []AnyDecoder {
	return m.decoders
}

// Event fans one edge out to all decoders. The returned slice is reused by
// the next call and must not be retained.
func (m *MultiReceiver) Event(rising bool, dt uint32) []AnyCommand {
	m.cmds = m.cmds[:0]
	m.errs = m.errs[:0]
	for _, d := range m.decoders {
		switch d.Event(rising, dt) {
		case StatusDone:
			if cmd, ok := d.AnyCommand(); ok {
				m.cmds = append(m.cmds, cmd)
			}
			d.Reset()
		case StatusError:
			m.errs = append(m.errs, d.Err())
			d.Reset()
		}
	}
	return m.cmds
}

// Edge is Event with the duration derived from a timer value.
func (m *MultiReceiver) Edge(rising bool, ts uint32) []AnyCommand {
	dt := ts - m.lastEdge
	m.lastEdge = ts
	return m.Event(rising, dt)
}

// Errors returns the decode errors raised by the last Event. Like the
// command slice it is reused.
func (m *MultiReceiver) Errors() []error {
	return m.errs
}

// Replay feeds a recorded pulse train and calls fn for every command.
func (m *MultiReceiver) Replay(pulses []uint32, fn func(AnyCommand)) {
	m.Reset()
	for i, dt := range pulses {
		for _, cmd := range m.Event(i%2 == 0, dt) {
			fn(cmd)
		}
	}
}

// Reset resets all decoders.
func (m *MultiReceiver) Reset() {
	for _, d := range m.decoders {
		d.Reset()
	}
}
