// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"math/rand"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomPulses builds a train whose values exercise every CBOR integer width
func randomPulses(rng *rand.Rand) []uint32 {
	pulses := make([]uint32, 2*rng.Intn(300))
	for i := range pulses {
		switch rng.Intn(4) {
		case 0:
			pulses[i] = uint32(rng.Intn(24))
		case 1:
			pulses[i] = uint32(rng.Intn(256))
		case 2:
			pulses[i] = uint32(rng.Intn(65536))
		default:
			pulses[i] = rng.Uint32()
		}
	}
	return pulses
}

func TestFuzz_PulseTrainRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		pulses := randomPulses(rng)
		rate := rng.Uint32()
		data, err := Encode(NewPulseTrain(rate, pulses, rng.Uint64()>>1))
		if err != nil {
			t.Fatalf("round %d: encode: %v", i, err)
		}

		packets, errs := decodeAll(d, data)
		if len(errs) != 0 || len(packets) != 1 {
			t.Fatalf("round %d: %d packets, errors %v", i, len(packets), errs)
		}
		got, ok := packets[0].Pulses()
		if !ok {
			t.Fatalf("round %d: no pulses", i)
		}
		if len(pulses) == 0 {
			if len(got) != 0 {
				t.Fatalf("round %d: got %d entries, want 0", i, len(got))
			}
		} else if !reflect.DeepEqual(got, pulses) {
			t.Fatalf("round %d: pulse mismatch", i)
		}
		if r, _ := packets[0].SampleRate(); r != rate {
			t.Fatalf("round %d: rate %d, want %d", i, r, rate)
		}
	}
}

func TestFuzz_RandomBytesNoPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(256))
		rng.Read(data)
		// Bias towards framing bytes so the state machine gets exercised
		for j := range data {
			if rng.Intn(8) == 0 {
				data[j] = []byte{StartByte, EndByte, EscByte}[rng.Intn(3)]
			}
		}
		packets, _ := decodeAll(d, data)
		for _, p := range packets {
			_ = FormatPacket(p)
			_ = ValidatePacket(p)
		}
	}
}

func TestFuzz_BitFlipsDetected(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := MustEncode(NewTransmit(1_000_000, randomPulses(rng), 38_000))
		inner, err := UnstuffBytes(data[1 : len(data)-1])
		if err != nil {
			t.Fatal(err)
		}
		// Flip one bit in the length+payload+CRC section and re-frame it
		pos := rng.Intn(len(inner))
		inner[pos] ^= 1 << rng.Intn(8)
		framed := append([]byte{StartByte}, stuffBytes(inner)...)
		framed = append(framed, EndByte)

		packets, _ := decodeAll(NewDecoder(), framed)
		if len(packets) != 0 {
			t.Fatalf("round %d: corrupted packet accepted (flip at %d)", i, pos)
		}
	}
}
