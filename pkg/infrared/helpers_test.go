// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// Sample rates exercised by the cross-rate tests: a slow poll loop, a
// typical timer capture rate, microsecond ticks and a fast MCU clock.
var testRates = []uint32{20_000, 40_000, 1_000_000, 48_000_000}

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

// encode runs an encoder into a fresh buffer and fails the test on error
func encode[C Command](t testing.TB, enc Encoder[C], cmd C) []uint32 {
	t.Helper()
	var buf PulseBuffer
	n, err := enc.Encode(cmd, buf[:])
	if err != nil {
		t.Fatalf("Encode(%+v) failed: %v", cmd, err)
	}
	return append([]uint32(nil), buf[:n]...)
}

// decodeAll replays a pulse train through a decoder and collects the commands
func decodeAll[C Command](d Decoder[C], pulses []uint32) []C {
	var cmds []C
	for cmd := range NewBufferReceiver(d, pulses).All() {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// concatTrains joins encoded trains, replacing each leading zero entry with
// an idle gap so that mark/space alternation is preserved.
func concatTrains(gap uint32, trains ...[]uint32) []uint32 {
	out := []uint32{0}
	for i, train := range trains {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, train[1:]...)
	}
	return out
}

// scaleTrain converts a train written in microseconds to the given rate
func scaleTrain(us []uint32, sampleRate uint32) []uint32 {
	out := make([]uint32, len(us))
	for i, v := range us {
		out[i] = Scale(v, sampleRate)
	}
	return out
}
