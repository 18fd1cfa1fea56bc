// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "testing"

func TestAnalyzeTrain_CleanFrame(t *testing.T) {
	for _, rate := range testRates {
		pulses := encode[NecCommand](t, NewNecEncoder(rate), NecCommand{Addr: 1, Cmd: 2})
		if anomalies := AnalyzeTrain(pulses, rate); len(anomalies) != 0 {
			t.Errorf("%d Hz: unexpected anomalies %v", rate, anomalies)
		}
	}
}

func TestAnalyzeTrain_Glitch(t *testing.T) {
	pulses := []uint32{0, 9000, 4500, 30, 560, 560}
	anomalies := AnalyzeTrain(pulses, 1_000_000)
	if len(anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1: %v", len(anomalies), anomalies)
	}
	a := anomalies[0]
	if a.Type != AnomalyGlitch || a.Index != 3 {
		t.Errorf("got %v at %d, want glitch at 3", a.Type, a.Index)
	}
	if a.Details["level"] != "mark" {
		t.Errorf("level = %v, want mark", a.Details["level"])
	}
	if a.Error() != a.Message {
		t.Error("Error() should return the message")
	}
}

func TestAnalyzeTrain_Overlong(t *testing.T) {
	pulses := []uint32{0, 560, 200_000, 560}
	anomalies := AnalyzeTrain(pulses, 1_000_000)
	if len(anomalies) != 1 || anomalies[0].Type != AnomalyOverlong || anomalies[0].Index != 2 {
		t.Fatalf("got %v, want one overlong space at 2", anomalies)
	}
	if anomalies[0].Details["level"] != "space" {
		t.Errorf("level = %v, want space", anomalies[0].Details["level"])
	}
}

func TestAnalyzeTrain_Truncated(t *testing.T) {
	pulses := []uint32{0, 9000, 4500}
	anomalies := AnalyzeTrain(pulses, 1_000_000)
	if len(anomalies) != 1 || anomalies[0].Type != AnomalyTruncated {
		t.Fatalf("got %v, want truncated", anomalies)
	}
	if anomalies[0].Index != 2 {
		t.Errorf("index = %d, want 2", anomalies[0].Index)
	}
}

func TestAnalyzeTrain_IgnoresLeadingIdle(t *testing.T) {
	// A long idle before the first mark is normal.
	pulses := []uint32{5_000_000, 560, 560, 560}
	if anomalies := AnalyzeTrain(pulses, 1_000_000); len(anomalies) != 0 {
		t.Errorf("unexpected anomalies %v", anomalies)
	}
	if anomalies := AnalyzeTrain([]uint32{0}, 1_000_000); anomalies == nil || len(anomalies) != 0 {
		t.Errorf("short train should return an empty slice, got %v", anomalies)
	}
}

func TestAnomalyType_String(t *testing.T) {
	tests := map[AnomalyType]string{
		AnomalyGlitch:    "glitch",
		AnomalyOverlong:  "overlong",
		AnomalyTruncated: "truncated",
		AnomalyType(42):  "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(typ), got, want)
		}
	}
}
