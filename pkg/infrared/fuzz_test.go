// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"math/rand"
	"testing"
)

// randomAny builds a random command of a random protocol
func randomAny(rng *rand.Rand) AnyCommand {
	switch p := Protocols()[rng.Intn(len(Protocols()))]; p {
	case ProtocolNEC:
		return ToAny(NecCommand{Addr: uint8(rng.Uint32()), Cmd: uint8(rng.Uint32())})
	case ProtocolNECSamsung:
		return ToAny(NecSamsungCommand{Addr: uint8(rng.Uint32()), Cmd: uint8(rng.Uint32())})
	case ProtocolNEC16:
		return ToAny(Nec16Command{Addr: uint16(rng.Uint32()), Cmd: uint8(rng.Uint32())})
	case ProtocolNECApple:
		return ToAny(NecAppleCommand{
			Page:     uint8(rng.Intn(32)),
			Cmd:      uint8(rng.Intn(128)),
			DeviceID: uint8(rng.Uint32()),
		})
	case ProtocolNECRaw:
		return ToAny(NecRawCommand{Raw: rng.Uint32()})
	case ProtocolRC5:
		return ToAny(Rc5Command{Addr: uint8(rng.Intn(32)), Cmd: uint8(rng.Intn(128)), Toggle: rng.Intn(2) == 1})
	case ProtocolRC6:
		return ToAny(Rc6Command{Addr: uint8(rng.Uint32()), Cmd: uint8(rng.Uint32()), Toggle: rng.Intn(2) == 1})
	case ProtocolSBP:
		return ToAny(SbpCommand{Addr: uint16(rng.Uint32()), Cmd: uint8(rng.Uint32())})
	case ProtocolDenon:
		return ToAny(NewDenonCommand(uint16(rng.Uint32()), rng.Uint32()))
	default:
		return ToAny(NewMitsubishiCommand(
			rng.Intn(2) == 1,
			[]MitsubishiMode{MitsubishiHeat, MitsubishiDry, MitsubishiCool, MitsubishiAuto}[rng.Intn(4)],
			uint8(16+rng.Intn(16)),
			MitsubishiFan(rng.Intn(6)),
		))
	}
}

func TestFuzz_EncodeDecodeRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		want := randomAny(rng)
		rate := testRates[rng.Intn(len(testRates))]

		var buf PulseBuffer
		n, err := EncodeAny(want, rate, buf[:])
		if err != nil {
			t.Fatalf("round %d: encode %+v: %v", i, want, err)
		}
		d, err := NewAnyDecoder(want.Protocol, rate)
		if err != nil {
			t.Fatal(err)
		}
		var got []AnyCommand
		NewMultiReceiver(d).Replay(buf[:n], func(c AnyCommand) { got = append(got, c) })
		if len(got) == 0 || got[0] != want {
			t.Fatalf("round %d at %d Hz: decoded %+v, want %+v", i, rate, got, want)
		}
	}
}

func TestFuzz_NoiseNeverPanics(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for _, rate := range []uint32{20_000, 1_000_000} {
		m, err := NewMultiReceiverFor(rate, Protocols()...)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < rounds; i++ {
			dt := rng.Uint32()
			if rng.Intn(4) > 0 {
				dt %= Scale(20_000, rate)
			}
			m.Event(rng.Intn(2) == 0, dt)
			for _, err := range m.Errors() {
				if err == nil {
					t.Fatalf("round %d: nil error reported", i)
				}
			}
		}
	}
}

// TestFuzz_CorruptedFrames flips single durations in valid trains and checks
// that decoders either reject the frame or return a structurally valid
// command, never a half-built one.
func TestFuzz_CorruptedFrames(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		want := randomAny(rng)
		var buf PulseBuffer
		n, err := EncodeAny(want, 1_000_000, buf[:])
		if err != nil {
			t.Fatal(err)
		}
		pulses := buf[:n]
		pulses[1+rng.Intn(n-1)] = rng.Uint32() % 10_000

		d, err := NewAnyDecoder(want.Protocol, 1_000_000)
		if err != nil {
			t.Fatal(err)
		}
		NewMultiReceiver(d).Replay(pulses, func(c AnyCommand) {
			if c.Protocol != want.Protocol {
				t.Fatalf("round %d: %v decoder produced %v command", i, want.Protocol, c.Protocol)
			}
		})
		if st := d.Status(); st == StatusDone || st == StatusError {
			t.Fatalf("round %d: decoder left in terminal state %v", i, st)
		}
	}
}
