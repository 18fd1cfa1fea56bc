// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"fmt"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalyMissingField AnomalyType = iota
	AnomalyInvalidValue
	AnomalyLengthMismatch
	AnomalyDecodeError
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket validates packet structure and detects anomalies
// Returns a slice of validation errors (empty if packet is valid)
func ValidatePacket(p *Packet) []ValidationError {
	if err := p.ParseError(); err != nil {
		return []ValidationError{{
			Type:    AnomalyDecodeError,
			Message: fmt.Sprintf("CBOR decode failed: %v", err),
			Details: map[string]interface{}{"error": err.Error()},
		}}
	}

	switch p.Type() {
	case MsgPulseTrain, MsgTransmit:
		return validatePulses(p)
	}
	return []ValidationError{}
}

// validatePulses validates the train carried by PULSE_TRAIN and TRANSMIT
func validatePulses(p *Packet) []ValidationError {
	errors := []ValidationError{}
	name := FormatMessageType(p.Type())

	rate, ok := p.SampleRate()
	if !ok || rate == 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("%s has no valid sample rate", name),
			Details: map[string]interface{}{"field": KeySampleRate},
		})
	}

	pulses, ok := p.Pulses()
	if !ok {
		return append(errors, ValidationError{
			Type:    AnomalyMissingField,
			Message: fmt.Sprintf("%s has no pulse array", name),
			Details: map[string]interface{}{"field": KeyPulses},
		})
	}

	if len(pulses) > infrared.PulseBufferSize {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s has %d entries (max %d)", name, len(pulses), infrared.PulseBufferSize),
			Details: map[string]interface{}{"length": len(pulses), "max": infrared.PulseBufferSize},
		})
	}

	// Complete trains end on a mark.
	if p.Type() == MsgTransmit && len(pulses)%2 != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("TRANSMIT train of %d entries ends on a space", len(pulses)),
			Details: map[string]interface{}{"length": len(pulses)},
		})
	}

	return errors
}
