// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/irscope/pkg/infrared"
)

// memRecorder collects events in memory
type memRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (m *memRecorder) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func necTrain(t *testing.T, addr, cmd uint8) []uint32 {
	t.Helper()
	var buf infrared.PulseBuffer
	n, err := infrared.NewNecEncoder(1_000_000).Encode(infrared.NecCommand{Addr: addr, Cmd: cmd}, buf[:])
	require.NoError(t, err)
	return append([]uint32(nil), buf[:n]...)
}

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)
	event := Event{
		Timestamp:  ts,
		Session:    uuid.NewString(),
		Source:     SourceProbe,
		SampleRate: 1_000_000,
		Pulses:     []uint32{0, 9000, 4500, 560},
		Commands: []Decoded{
			{Protocol: "nec", Bits: 0xD32CF807, Address: 7, Command: 44},
		},
		Errors: []string{"rc6: classification error"},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, decoded.Timestamp.Equal(ts), "nanosecond timestamp preserved")
	assert.Equal(t, event.Session, decoded.Session)
	assert.Equal(t, event.Pulses, decoded.Pulses)
	assert.Equal(t, event.Commands, decoded.Commands)
	assert.Equal(t, event.Errors, decoded.Errors)
}

func TestDecodedAnyRoundTrip(t *testing.T) {
	want := infrared.ToAny(infrared.Rc6Command{Addr: 0x80, Cmd: 0x0C, Toggle: true})

	got, err := FromAny(want).Any()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Decoded{Protocol: "sony"}.Any()
	assert.True(t, errors.Is(err, infrared.ErrUnsupported))
}

func TestSessionRecord(t *testing.T) {
	mem := &memRecorder{}
	s := NewSession(mem, SourceProbe)
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err, "session id is a uuid")

	pulses := necTrain(t, 1, 2)
	cmds := []infrared.AnyCommand{infrared.ToAny(infrared.NecCommand{Addr: 1, Cmd: 2})}
	errs := []error{infrared.DecodeError{Protocol: infrared.ProtocolRC5, Kind: infrared.ErrorClassification}}

	event := s.Record(1_000_000, pulses, cmds, errs)
	pulses[1] = 0

	require.Len(t, mem.events, 1)
	assert.Equal(t, s.ID, event.Session)
	assert.NotZero(t, event.Pulses[1], "pulses are copied")
	require.Len(t, event.Commands, 1)
	assert.Equal(t, "nec", event.Commands[0].Protocol)
	assert.Len(t, event.Errors, 1)
}

func TestNewSessionNilRecorder(t *testing.T) {
	s := NewSession(nil, SourceImport)
	assert.NotPanics(t, func() {
		s.Record(40_000, []uint32{0, 1}, nil, nil)
	})
}

func TestFileRecorderAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.irc")

	rec, err := NewFileRecorder(path)
	require.NoError(t, err)
	first := NewSession(rec, SourceProbe)
	first.Record(1_000_000, necTrain(t, 1, 1), []infrared.AnyCommand{
		infrared.ToAny(infrared.NecCommand{Addr: 1, Cmd: 1}),
	}, nil)
	first.Record(1_000_000, []uint32{0, 30, 40}, nil, nil)
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "Close is idempotent")
	rec.Record(Event{Session: "after-close"})

	// Reopen and append a second session
	rec, err = NewFileRecorder(path)
	require.NoError(t, err)
	second := NewSession(rec, SourceTransmit)
	second.Record(1_000_000, necTrain(t, 2, 2), []infrared.AnyCommand{
		infrared.ToAny(infrared.NecCommand{Addr: 2, Cmd: 2}),
	}, nil)
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Err())

	events, err := ReadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, first.ID, events[0].Session)
	assert.Equal(t, second.ID, events[2].Session)
	assert.Equal(t, SourceTransmit, events[2].Source)
}

func TestReadFileFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.irc")
	rec, err := NewFileRecorder(path)
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, Session: "a", Source: SourceProbe, Commands: []Decoded{{Protocol: "nec"}}},
		{Timestamp: base.Add(time.Second), Session: "a", Source: SourceProbe},
		{Timestamp: base.Add(2 * time.Second), Session: "b", Source: SourceTransmit, Commands: []Decoded{{Protocol: "rc5"}}},
	}
	for _, e := range events {
		rec.Record(e)
	}
	require.NoError(t, rec.Close())

	nec := infrared.ProtocolNEC
	transmit := SourceTransmit
	start := base.Add(time.Second)
	end := base.Add(2 * time.Second)

	tests := []struct {
		name   string
		filter *Filter
		want   int
	}{
		{"nil filter", nil, 3},
		{"session", &Filter{Session: "a"}, 2},
		{"source", &Filter{Source: &transmit}, 1},
		{"protocol", &Filter{Protocol: &nec}, 1},
		{"decoded only", &Filter{DecodedOnly: true}, 2},
		{"time window", &Filter{TimeStart: &start, TimeEnd: &end}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFile(path, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.irc"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMultiRecorder(t *testing.T) {
	a, b := &memRecorder{}, &memRecorder{}
	m := NewMultiRecorder(a, b, NoopRecorder{})
	m.Record(Event{Session: "x"})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestSlogRecorder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewSlogRecorder(logger).Record(Event{
		Session:    "s1",
		SampleRate: 40_000,
		Pulses:     []uint32{0, 1, 2, 3},
		Commands:   []Decoded{{Protocol: "rc5", Address: 5, Command: 0x35}},
		Errors:     []string{"boom"},
	})

	out := buf.String()
	assert.Contains(t, out, "pulse train")
	assert.Contains(t, out, "session=s1")
	assert.Contains(t, out, "entries=4")
	assert.Contains(t, out, "cmd0.protocol=rc5")
	assert.Contains(t, out, "boom")
}

func TestSlogRecorderRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewSlogRecorder(logger).Record(Event{Session: "quiet"})
	assert.Empty(t, buf.String())
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "PROBE", SourceProbe.String())
	assert.Equal(t, "TRANSMIT", SourceTransmit.String())
	assert.Equal(t, "IMPORT", SourceImport.String())
	assert.Equal(t, "UNKNOWN", Source(9).String())
}
