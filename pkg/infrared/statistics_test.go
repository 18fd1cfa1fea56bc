// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"strings"
	"testing"
)

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()

	s.Update([]AnyCommand{
		{Protocol: ProtocolNEC, Address: 1},
		{Protocol: ProtocolNEC, Address: 1, Repeat: true},
		{Protocol: ProtocolRC5},
	}, nil, nil)
	s.Update(nil, []error{
		DecodeError{Protocol: ProtocolNEC, Kind: ErrorClassification},
		DecodeError{Protocol: ProtocolSBP, Kind: ErrorValidation},
		errors.New("serial timeout"),
	}, []Anomaly{
		{Type: AnomalyGlitch},
		{Type: AnomalyTruncated},
	})

	if s.TotalTrains != 2 {
		t.Errorf("TotalTrains = %d, want 2", s.TotalTrains)
	}
	if s.DecodedTrains != 1 {
		t.Errorf("DecodedTrains = %d, want 1", s.DecodedTrains)
	}
	if s.Commands != 3 || s.Repeats != 1 {
		t.Errorf("Commands = %d, Repeats = %d, want 3 and 1", s.Commands, s.Repeats)
	}
	if s.PerProtocol[ProtocolNEC] != 2 || s.PerProtocol[ProtocolRC5] != 1 {
		t.Errorf("PerProtocol = %v", s.PerProtocol)
	}
	if s.ClassificationErrors != 1 || s.ValidationErrors != 1 || s.OtherErrors != 1 {
		t.Errorf("errors = %d/%d/%d, want 1/1/1",
			s.ClassificationErrors, s.ValidationErrors, s.OtherErrors)
	}
	if s.Errors() != 3 {
		t.Errorf("Errors() = %d, want 3", s.Errors())
	}
	if s.Anomalies != 2 || s.Glitches != 1 || s.Truncated != 1 || s.Overlong != 0 {
		t.Errorf("anomalies = %d (glitch %d, truncated %d, overlong %d)",
			s.Anomalies, s.Glitches, s.Truncated, s.Overlong)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update([]AnyCommand{{Protocol: ProtocolMitsubishi}}, nil, nil)
	s.Update(nil, []error{DecodeError{Protocol: ProtocolRC6, Kind: ErrorClassification}}, nil)

	out := s.String()
	for _, want := range []string{"Pulse Trains:", "mitsubishi:", "Classification:", "Train Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Validation:") {
		t.Errorf("summary should omit zero counters:\n%s", out)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update([]AnyCommand{{Protocol: ProtocolNEC}}, nil, nil)
	s.Reset()
	if s.TotalTrains != 0 || s.Commands != 0 || len(s.PerProtocol) != 0 {
		t.Errorf("Reset left counters: %+v", s)
	}
	s.Update([]AnyCommand{{Protocol: ProtocolNEC}}, nil, nil)
	if s.PerProtocol[ProtocolNEC] != 1 {
		t.Error("PerProtocol unusable after Reset")
	}
}
