// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

// pulseWriter appends durations to a caller-owned buffer and remembers
// whether it ran out of room.
type pulseWriter struct {
	buf  []uint32
	n    int
	full bool
}

func newPulseWriter(buf []uint32) pulseWriter {
	w := pulseWriter{buf: buf}
	w.put(0)
	return w
}

func (w *pulseWriter) put(ticks uint32) {
	if w.n >= len(w.buf) {
		w.full = true
		return
	}
	w.buf[w.n] = ticks
	w.n++
}

// bit writes one pulse-distance bit: a fixed mark followed by a space whose
// length carries the value.
func (w *pulseWriter) bit(t distanceTicks, one bool) {
	w.put(t.mark)
	if one {
		w.put(t.one)
	} else {
		w.put(t.zero)
	}
}

func (w *pulseWriter) result() (int, error) {
	if w.full {
		return w.n, ErrBufferTooSmall
	}
	return w.n, nil
}

// distanceTicks are the bit timings of a pulse-distance protocol in ticks.
type distanceTicks struct {
	mark uint32
	zero uint32
	one  uint32
}

func newDistanceTicks(mark, zero, one, sampleRate uint32) distanceTicks {
	return distanceTicks{
		mark: Scale(mark, sampleRate),
		zero: Scale(zero, sampleRate),
		one:  Scale(one, sampleRate),
	}
}

// halfWriter run-length encodes biphase half-bit levels into a pulse
// train. Leading off halves are dropped so the train starts with a mark, and
// a trailing off run is never written.
type halfWriter struct {
	w          *pulseWriter
	unit       uint32
	sampleRate uint32
	level      bool
	run        uint32
	started    bool
}

func (h *halfWriter) half(on bool) {
	if !h.started {
		if !on {
			return
		}
		h.started = true
		h.level = true
		h.run = 1
		return
	}
	if on == h.level {
		h.run++
		return
	}
	h.w.put(Scale(h.run*h.unit, h.sampleRate))
	h.level = on
	h.run = 1
}

func (h *halfWriter) halves(n int, on bool) {
	for range n {
		h.half(on)
	}
}

func (h *halfWriter) flush() {
	if h.started && h.level {
		h.w.put(Scale(h.run*h.unit, h.sampleRate))
	}
}

// addSat adds two durations, saturating instead of wrapping, so a long idle
// period never aliases onto a short pulse category.
func addSat(a, b uint32) uint32 {
	s := a + b
	if s < a {
		return ^uint32(0)
	}
	return s
}
