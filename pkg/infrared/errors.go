// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind uint8

const (
	ErrorNone ErrorKind = iota
	// ErrorClassification: a duration matched no expected pulse category.
	ErrorClassification
	// ErrorValidation: all bits arrived but the checksum, complement or
	// parity check failed.
	ErrorValidation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorClassification:
		return "classification"
	case ErrorValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrClassification is matched by errors.Is for classification failures.
	ErrClassification = errors.New("pulse matched no known category")
	// ErrValidation is matched by errors.Is for validation failures.
	ErrValidation = errors.New("frame failed validation")
	// ErrWouldBlock is returned by Transmitter.Load while a transmission is in flight.
	ErrWouldBlock = errors.New("transmitter busy")
	// ErrBufferTooSmall is returned by encoders when the output buffer is full.
	ErrBufferTooSmall = errors.New("pulse buffer too small")
	// ErrUnsupported is returned when a protocol has no decoder or encoder.
	ErrUnsupported = errors.New("unsupported protocol")
)

// DecodeError reports why a decoder entered its error state.
type DecodeError struct {
	Protocol Protocol
	Kind     ErrorKind
}

// Error implements the error interface
func (e DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Protocol, e.Unwrap())
}

// Unwrap returns ErrClassification or ErrValidation.
func (e DecodeError) Unwrap() error {
	switch e.Kind {
	case ErrorClassification:
		return ErrClassification
	case ErrorValidation:
		return ErrValidation
	default:
		return errors.New("decode failed")
	}
}

// decodeErr returns nil for ErrorNone so decoders can report Err() uniformly.
func decodeErr(p Protocol, kind ErrorKind) error {
	if kind == ErrorNone {
		return nil
	}
	return DecodeError{Protocol: p, Kind: kind}
}
