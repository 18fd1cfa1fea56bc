// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "testing"

// ============================================================
// Scaling Tests
// ============================================================

func TestScale(t *testing.T) {
	tests := []struct {
		us       uint32
		rate     uint32
		expected uint32
	}{
		{us: 560, rate: 1_000_000, expected: 560},
		{us: 560, rate: 20_000, expected: 11},
		{us: 560, rate: 40_000, expected: 22},
		{us: 9000, rate: 48_000_000, expected: 432_000},
		{us: 120_000, rate: 48_000_000, expected: 5_760_000},
		{us: 0, rate: 48_000_000, expected: 0},
		{us: 889, rate: 20_000, expected: 17},
	}

	for _, tt := range tests {
		if got := Scale(tt.us, tt.rate); got != tt.expected {
			t.Errorf("Scale(%d, %d) = %d, want %d", tt.us, tt.rate, got, tt.expected)
		}
	}
}

func TestScale_NoOverflow(t *testing.T) {
	// 4 seconds at 1 GHz overflows a 32-bit intermediate product by a
	// wide margin but fits the result.
	if got := Scale(4_000_000, 1_000_000_000); got != 4_000_000_000 {
		t.Errorf("Scale(4s, 1GHz) = %d, want 4000000000", got)
	}
}

// ============================================================
// Span Tests
// ============================================================

func TestNewPulseSpan(t *testing.T) {
	tests := []struct {
		name     string
		pulse    Pulse
		rate     uint32
		expected PulseSpan
	}{
		{"NEC zero 1MHz", Pulse{1120, 5}, 1_000_000, PulseSpan{1062, 1180}},
		{"NEC one 1MHz", Pulse{2250, 5}, 1_000_000, PulseSpan{2136, 2366}},
		{"NEC zero 20kHz", Pulse{1120, 5}, 20_000, PulseSpan{19, 27}},
		{"NEC sync 20kHz", Pulse{13500, 7}, 20_000, PulseSpan{250, 292}},
		{"saturates at zero", Pulse{50, 50}, 20_000, PulseSpan{0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPulseSpan(tt.pulse, tt.rate)
			if got != tt.expected {
				t.Errorf("NewPulseSpan(%+v, %d) = %+v, want %+v", tt.pulse, tt.rate, got, tt.expected)
			}
		})
	}
}

func TestClassify_ToleranceBoundary(t *testing.T) {
	spans := necStandardTiming.spans(1_000_000)
	zero := spans.Span(necZero)

	tests := []struct {
		ticks  uint32
		wantOK bool
	}{
		{zero.Low, true},
		{zero.High, true},
		{zero.Low - 1, false},
		{zero.High + 1, false},
	}

	for _, tt := range tests {
		pulse, ok := spans.Classify(tt.ticks)
		if ok != tt.wantOK {
			t.Errorf("Classify(%d) ok = %v, want %v", tt.ticks, ok, tt.wantOK)
			continue
		}
		if ok && pulse != necZero {
			t.Errorf("Classify(%d) = %d, want zero category", tt.ticks, pulse)
		}
	}
}

func TestClassify_NoMatchIsNotFirstCategory(t *testing.T) {
	spans := necStandardTiming.spans(1_000_000)
	for _, ticks := range []uint32{0, 1, 500, 5000, 1 << 31} {
		if pulse, ok := spans.Classify(ticks); ok {
			t.Errorf("Classify(%d) matched category %d, want no match", ticks, pulse)
		}
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Two overlapping categories: the first listed wins.
	spans := NewPulseSpans(1_000_000, Pulse{1000, 20}, Pulse{1100, 20})
	if pulse, ok := spans.Classify(1050); !ok || pulse != 0 {
		t.Errorf("Classify(1050) = %d, %v; want 0, true", pulse, ok)
	}
	if pulse, ok := spans.Classify(1300); !ok || pulse != 1 {
		t.Errorf("Classify(1300) = %d, %v; want 1, true", pulse, ok)
	}
}

func TestNewPulseSpans_TooMany(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewPulseSpans with more than MaxSpans pulses should panic")
		}
	}()
	pulses := make([]Pulse, MaxSpans+1)
	NewPulseSpans(1_000_000, pulses...)
}

func TestSpans_Disjoint(t *testing.T) {
	// Every protocol keeps its categories apart at all supported rates,
	// except RC6 whose 4, 5 and 6 unit categories overlap and rely on
	// longest-first ordering.
	for _, rate := range testRates {
		for _, p := range Protocols() {
			if p == ProtocolRC6 {
				continue
			}
			d, err := NewAnyDecoder(p, rate)
			if err != nil {
				t.Fatal(err)
			}
			sd, ok := d.(interface{ Spans() PulseSpans })
			if !ok {
				t.Fatalf("%s decoder does not expose spans", p)
			}
			spans := sd.Spans()
			for i := 0; i < spans.Len(); i++ {
				for j := i + 1; j < spans.Len(); j++ {
					a, b := spans.Span(i), spans.Span(j)
					if a.Low <= b.High && b.Low <= a.High {
						t.Errorf("%s at %d Hz: span %d %+v overlaps span %d %+v", p, rate, i, a, j, b)
					}
				}
			}
		}
	}
}
