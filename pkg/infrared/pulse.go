// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "fmt"

// MaxSpans is the largest number of pulse categories one protocol uses.
const MaxSpans = 8

// Fixed slack added around every span, in ticks, to absorb rounding.
const (
	spanSlackLow  = 2
	spanSlackHigh = 4
)

// Pulse is a nominal pulse length with its tolerance.
type Pulse struct {
	Length    uint32 // microseconds
	Tolerance uint32 // percent
}

// PulseSpan is an inclusive tick range matching one pulse category.
type PulseSpan struct {
	Low  uint32
	High uint32
}

// Scale converts a length in microseconds to ticks at the given sample rate.
// The intermediate product is 64-bit so rates up to tens of MHz are exact.
func Scale(us, sampleRate uint32) uint32 {
	return uint32(uint64(us) * uint64(sampleRate) / 1_000_000)
}

// NewPulseSpan builds the tick range for one nominal pulse.
func NewPulseSpan(p Pulse, sampleRate uint32) PulseSpan {
	ticks := Scale(p.Length, sampleRate)
	tol := uint32(uint64(ticks) * uint64(p.Tolerance) / 100)

	var low uint32
	if ticks > tol+spanSlackLow {
		low = ticks - tol - spanSlackLow
	}
	return PulseSpan{Low: low, High: ticks + tol + spanSlackHigh}
}

// Contains reports whether ticks falls inside the span.
func (s PulseSpan) Contains(ticks uint32) bool {
	return ticks >= s.Low && ticks <= s.High
}

// PulseSpans is an ordered set of pulse categories for one protocol at one
// sample rate. It is a plain value; copying it is cheap and never allocates.
type PulseSpans struct {
	spans [MaxSpans]PulseSpan
	n     int
}

// NewPulseSpans builds the spans for the given pulses, in priority order.
// It panics if more than MaxSpans pulses are given.
func NewPulseSpans(sampleRate uint32, pulses ...Pulse) PulseSpans {
	if len(pulses) > MaxSpans {
		panic(fmt.Sprintf("infrared: %d pulse categories exceeds %d", len(pulses), MaxSpans))
	}
	var ps PulseSpans
	for i, p := range pulses {
		ps.spans[i] = NewPulseSpan(p, sampleRate)
	}
	ps.n = len(pulses)
	return ps
}

// Classify returns the index of the first span containing ticks. The second
// result is false when the duration fits no category.
func (ps *PulseSpans) Classify(ticks uint32) (int, bool) {
	for i := 0; i < ps.n; i++ {
		if ps.spans[i].Contains(ticks) {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of categories.
func (ps *PulseSpans) Len() int {
	return ps.n
}

// Span returns category i.
func (ps *PulseSpans) Span(i int) PulseSpan {
	return ps.spans[i]
}
