// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks decode results and error rates over a capture session
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalTrains          uint64
	DecodedTrains        uint64
	Commands             uint64
	Repeats              uint64
	ClassificationErrors uint64
	ValidationErrors     uint64
	OtherErrors          uint64
	Anomalies            uint64
	Glitches             uint64
	Overlong             uint64
	Truncated            uint64

	PerProtocol map[Protocol]uint64

	// Rates (calculated)
	TrainRate   float64 // trains/sec
	CommandRate float64 // commands/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		PerProtocol:    make(map[Protocol]uint64),
	}
}

// Update records the outcome of decoding one pulse train
func (s *Statistics) Update(cmds []AnyCommand, decodeErrs []error, anomalies []Anomaly) {
	s.TotalTrains++

	if len(cmds) > 0 {
		s.DecodedTrains++
	}
	for _, cmd := range cmds {
		s.Commands++
		if cmd.Repeat {
			s.Repeats++
		}
		s.PerProtocol[cmd.Protocol]++
	}

	for _, err := range decodeErrs {
		switch {
		case errors.Is(err, ErrClassification):
			s.ClassificationErrors++
		case errors.Is(err, ErrValidation):
			s.ValidationErrors++
		default:
			s.OtherErrors++
		}
	}

	for _, a := range anomalies {
		s.Anomalies++
		switch a.Type {
		case AnomalyGlitch:
			s.Glitches++
		case AnomalyOverlong:
			s.Overlong++
		case AnomalyTruncated:
			s.Truncated++
		}
	}

	// Update timestamp for rate calculation
	s.LastUpdateTime = time.Now()
}

// Errors returns the total number of decode errors
func (s *Statistics) Errors() uint64 {
	return s.ClassificationErrors + s.ValidationErrors + s.OtherErrors
}

// CalculateRates calculates train, command and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.TrainRate = float64(s.TotalTrains) / elapsed
		s.CommandRate = float64(s.Commands) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var decodedPercent, anomalyPercent float64
	if s.TotalTrains > 0 {
		decodedPercent = float64(s.DecodedTrains) * 100.0 / float64(s.TotalTrains)
		anomalyPercent = float64(s.Anomalies) * 100.0 / float64(s.TotalTrains)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Pulse Trains:    %8d\n", s.TotalTrains)
	result += fmt.Sprintf("Decoded Trains:  %8d (%.1f%%)\n", s.DecodedTrains, decodedPercent)
	result += fmt.Sprintf("Commands:        %8d\n", s.Commands)
	if s.Repeats > 0 {
		result += fmt.Sprintf("  Repeats:          %5d\n", s.Repeats)
	}
	for _, p := range Protocols() {
		if n := s.PerProtocol[p]; n > 0 {
			result += fmt.Sprintf("  %-16s %5d\n", p.String()+":", n)
		}
	}

	if s.ClassificationErrors > 0 {
		result += fmt.Sprintf("Classification:  %8d\n", s.ClassificationErrors)
	}
	if s.ValidationErrors > 0 {
		result += fmt.Sprintf("Validation:      %8d\n", s.ValidationErrors)
	}
	if s.OtherErrors > 0 {
		result += fmt.Sprintf("Other Errors:    %8d\n", s.OtherErrors)
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d (%.1f%%)\n", s.Anomalies, anomalyPercent)
		if s.Glitches > 0 {
			result += fmt.Sprintf("  Glitches:         %5d\n", s.Glitches)
		}
		if s.Overlong > 0 {
			result += fmt.Sprintf("  Overlong:         %5d\n", s.Overlong)
		}
		if s.Truncated > 0 {
			result += fmt.Sprintf("  Truncated:        %5d\n", s.Truncated)
		}
	}

	result += fmt.Sprintf("Train Rate:      %8.1f trains/sec\n", s.TrainRate)
	result += fmt.Sprintf("Command Rate:    %8.1f cmds/sec\n", s.CommandRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
