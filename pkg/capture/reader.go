// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// Filter selects events from a capture file. Zero fields match everything.
type Filter struct {
	// Session filters by exact session id.
	Session string

	// Source filters by capture source.
	Source *Source

	// Protocol keeps events with at least one command of this protocol.
	Protocol *infrared.Protocol

	// DecodedOnly drops trains no decoder accepted.
	DecodedOnly bool

	// TimeStart keeps events at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps events before this time.
	TimeEnd *time.Time
}

func (f *Filter) matches(event Event) bool {
	if f == nil {
		return true
	}
	if f.Session != "" && event.Session != f.Session {
		return false
	}
	if f.Source != nil && event.Source != *f.Source {
		return false
	}
	if f.Protocol != nil && !event.HasProtocol(*f.Protocol) {
		return false
	}
	if f.DecodedOnly && len(event.Commands) == 0 {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events from a capture file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  *Filter
}

// NewReader opens a capture file. A nil filter reads every event.
func NewReader(path string, filter *Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadFile reads all matching events from a capture file.
func ReadFile(path string, filter *Filter) ([]Event, error) {
	r, err := NewReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []Event
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}
