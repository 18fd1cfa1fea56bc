// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import "fmt"

// AnomalyType represents the kinds of timing problems found in a pulse train
type AnomalyType int

const (
	AnomalyGlitch AnomalyType = iota
	AnomalyOverlong
	AnomalyTruncated
)

func (t AnomalyType) String() string {
	switch t {
	case AnomalyGlitch:
		return "glitch"
	case AnomalyOverlong:
		return "overlong"
	case AnomalyTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Thresholds used by AnalyzeTrain, microseconds.
const (
	GlitchThreshold   = 80
	OverlongThreshold = 120_000
)

// Anomaly describes a suspicious entry in a pulse train
type Anomaly struct {
	Type    AnomalyType
	Index   int
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (a *Anomaly) Error() string {
	return a.Message
}

// AnalyzeTrain checks a recorded pulse train for timing anomalies that no
// decoder would accept: pulses shorter than any real symbol, marks or
// spaces too long to belong to a frame, and trains that stop on a space.
// The leading idle entry is not checked.
// Returns an empty slice if nothing was found.
func AnalyzeTrain(pulses []uint32, sampleRate uint32) []Anomaly {
	anomalies := []Anomaly{}
	if len(pulses) < 2 {
		return anomalies
	}

	glitch := Scale(GlitchThreshold, sampleRate)
	overlong := Scale(OverlongThreshold, sampleRate)

	for i := 1; i < len(pulses); i++ {
		level := "mark"
		if i%2 == 0 {
			level = "space"
		}
		switch dt := pulses[i]; {
		case dt < glitch:
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyGlitch,
				Index:   i,
				Message: fmt.Sprintf("%s %d at index %d shorter than %dus", level, dt, i, GlitchThreshold),
				Details: map[string]interface{}{"ticks": dt, "threshold": glitch, "level": level},
			})
		case dt > overlong:
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyOverlong,
				Index:   i,
				Message: fmt.Sprintf("%s %d at index %d longer than %dms", level, dt, i, OverlongThreshold/1000),
				Details: map[string]interface{}{"ticks": dt, "threshold": overlong, "level": level},
			})
		}
	}

	// Entries alternate starting with the idle time, so a complete train
	// has an even length and ends on a mark.
	if len(pulses)%2 != 0 {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyTruncated,
			Index:   len(pulses) - 1,
			Message: fmt.Sprintf("train of %d entries ends on a space", len(pulses)),
			Details: map[string]interface{}{"length": len(pulses)},
		})
	}

	return anomalies
}
