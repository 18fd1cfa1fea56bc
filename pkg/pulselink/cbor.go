// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulselink

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ParseCBORMessage parses a PulseLink CBOR message: [msg_type, payload_map]
// Returns the message type and decoded payload map (nil for empty payloads)
func ParseCBORMessage(data []byte) (msgType uint8, payload map[int]interface{}, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty CBOR payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}

	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	switch v := msg[0].(type) {
	case uint64:
		if v > 255 {
			return 0, nil, fmt.Errorf("message type out of range: %d", v)
		}
		msgType = uint8(v)
	default:
		return 0, nil, fmt.Errorf("expected uint for message type, got %T", msg[0])
	}

	if msg[1] == nil {
		return msgType, nil, nil
	}

	switch v := msg[1].(type) {
	case map[interface{}]interface{}:
		payload = make(map[int]interface{}, len(v))
		for key, val := range v {
			switch k := key.(type) {
			case uint64:
				payload[int(k)] = val
			case int64:
				payload[int(k)] = val
			default:
				return 0, nil, fmt.Errorf("expected integer map key, got %T", key)
			}
		}
	default:
		return 0, nil, fmt.Errorf("expected map or nil for payload, got %T", msg[1])
	}

	return msgType, payload, nil
}

// Map value extraction helpers

// GetMapUint extracts a uint64 from a CBOR map by key
func GetMapUint(m map[int]interface{}, key int) (uint64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toUint(v)
}

func toUint(v interface{}) (uint64, bool) {
	switch val := v.(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	case uint32:
		return uint64(val), true
	case int:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}

// GetMapInt extracts an int64 from a CBOR map by key
func GetMapInt(m map[int]interface{}, key int) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	case int:
		return int64(val), true
	}
	return 0, false
}

// GetMapString extracts a string from a CBOR map by key
func GetMapString(m map[int]interface{}, key int) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetMapUintSlice extracts an array of unsigned 32-bit values. Packets built
// locally hold a []uint32, decoded ones a []interface{}.
func GetMapUintSlice(m map[int]interface{}, key int) ([]uint32, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	switch val := v.(type) {
	case []uint32:
		return val, true
	case []interface{}:
		out := make([]uint32, len(val))
		for i, item := range val {
			u, ok := toUint(item)
			if !ok || u > 0xFFFFFFFF {
				return nil, false
			}
			out[i] = uint32(u)
		}
		return out, true
	}
	return nil, false
}
