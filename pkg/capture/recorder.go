// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// Recorder receives captured events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(event Event)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

// Record discards the event.
func (NoopRecorder) Record(Event) {}

// FileRecorder appends events to a capture file.
type FileRecorder struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	err     error
}

// NewFileRecorder opens path for appending, creating it if needed.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record writes an event. Write errors do not interrupt capture; the first
// one is kept and returned by Err.
func (r *FileRecorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if err := r.encoder.Encode(event); err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first write error.
func (r *FileRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the file. Calls after the first are no-ops.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// MultiRecorder sends events to several recorders.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Record sends the event to every recorder.
func (m *MultiRecorder) Record(event Event) {
	for _, r := range m.recorders {
		r.Record(event)
	}
}

// SlogRecorder writes a debug line per event.
type SlogRecorder struct {
	logger *slog.Logger
}

func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	return &SlogRecorder{logger: logger}
}

// Record logs the event at Debug level.
func (s *SlogRecorder) Record(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.Session),
		slog.String("source", event.Source.String()),
		slog.Uint64("sample_rate", uint64(event.SampleRate)),
		slog.Int("entries", len(event.Pulses)),
	}
	for i, c := range event.Commands {
		attrs = append(attrs, slog.Group("cmd"+strconv.Itoa(i),
			slog.String("protocol", c.Protocol),
			slog.Uint64("address", uint64(c.Address)),
			slog.Uint64("command", uint64(c.Command)),
			slog.Bool("repeat", c.Repeat),
		))
	}
	if len(event.Errors) > 0 {
		attrs = append(attrs, slog.Any("errors", event.Errors))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "pulse train", attrs...)
}

// Session stamps events with a session id and source before recording them.
type Session struct {
	ID       string
	Source   Source
	recorder Recorder
	now      func() time.Time
}

// NewSession starts a session with a random id. A nil recorder discards
// events.
func NewSession(recorder Recorder, source Source) *Session {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Session{
		ID:       uuid.NewString(),
		Source:   source,
		recorder: recorder,
		now:      time.Now,
	}
}

// Record builds an Event for one pulse train and hands it to the recorder.
// The pulse slice is copied.
func (s *Session) Record(sampleRate uint32, pulses []uint32, cmds []infrared.AnyCommand, errs []error) Event {
	event := Event{
		Timestamp:  s.now(),
		Session:    s.ID,
		Source:     s.Source,
		SampleRate: sampleRate,
		Pulses:     append([]uint32(nil), pulses...),
	}
	for _, c := range cmds {
		event.Commands = append(event.Commands, FromAny(c))
	}
	for _, err := range errs {
		event.Errors = append(event.Errors, err.Error())
	}
	s.recorder.Record(event)
	return event
}

// Compile-time interface satisfaction checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*FileRecorder)(nil)
	_ Recorder = (*MultiRecorder)(nil)
	_ Recorder = (*SlogRecorder)(nil)
)
